package imagery

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"

	"Pixie/ai"
	"Pixie/storage"

	"github.com/stretchr/testify/require"
)

type variationCall struct {
	png      []byte
	fileName string
	size     string
}

type fakeProvider struct {
	mu sync.Mutex

	payloads []string
	genErr   error
	genCalls []ai.GenerateParams

	variation   string
	varErr      error
	varCalls    []variationCall
	onVariation func(fileName string)
}

func (f *fakeProvider) Generate(_ context.Context, params ai.GenerateParams) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls = append(f.genCalls, params)
	return f.payloads, f.genErr
}

func (f *fakeProvider) CreateVariation(_ context.Context, png []byte, fileName, size string) (string, error) {
	f.mu.Lock()
	f.varCalls = append(f.varCalls, variationCall{png: png, fileName: fileName, size: size})
	hook := f.onVariation
	f.mu.Unlock()
	if hook != nil {
		hook(fileName)
	}
	return f.variation, f.varErr
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.genCalls) + len(f.varCalls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings(p Provider, ledger Ledger) Settings {
	return Settings{
		APIKey:   "sk-test",
		Provider: p,
		Ledger:   ledger,
		Log:      discardLogger(),
	}
}

// pngBytes encodes a w x h image with a gradient so resizing has real work to do.
func pngBytes(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngBase64(t testing.TB, w, h int) string {
	return base64.StdEncoding.EncodeToString(pngBytes(t, w, h))
}

func decodeConfig(t testing.TB, data []byte) image.Config {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg
}

var _ Ledger = (*storage.MemoryStorage)(nil)
