package imagery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time { return time.Unix(1700000000, 0) }

func TestService_Imagine(t *testing.T) {
	out := t.TempDir()
	p := &fakeProvider{payloads: []string{pngBase64(t, 4, 4)}}
	s := testSettings(p, nil)
	s.OutputDir = out

	svc := NewService(s, Size256, true)
	svc.now = fixedClock

	files, err := svc.Imagine(context.Background(), 42, "a red fox")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "chat_42", "imagine_1700000000.jpg")}, files)
	require.Len(t, p.genCalls, 1)
	assert.Equal(t, "256x256", p.genCalls[0].Size)
}

func TestService_Vary(t *testing.T) {
	img := pngBytes(t, 20, 30)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(img)
	}))
	defer srv.Close()

	out := t.TempDir()
	p := &fakeProvider{variation: pngBase64(t, 4, 4)}
	s := testSettings(p, nil)
	s.OutputDir = out
	s.HTTPClient = srv.Client()

	svc := NewService(s, Size256, false)
	svc.now = fixedClock

	files, err := svc.Vary(context.Background(), 7, srv.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "chat_7", "vary_1700000000.jpg")}, files)
	assert.NoDirExists(t, filepath.Join(out, "chat_7", "cropped"))
}

func TestService_VaryReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	s := testSettings(&fakeProvider{}, nil)
	s.OutputDir = t.TempDir()
	s.HTTPClient = srv.Client()

	files, err := NewService(s, Size512, true).Vary(context.Background(), 1, srv.URL)
	assert.Empty(t, files)
	assert.ErrorIs(t, err, ErrDownload)
}
