package imagery

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

const imageExt = ".jpg"

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// DecodePayload strips an optional data URL prefix and decodes standard base64.
func DecodePayload(b64 string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(dataURLPrefix.ReplaceAllString(b64, ""))
}

// SaveImage decodes a base64 payload and writes it to <dir>/<fileName>.jpg.
// The extension is always .jpg, the payload format is not sniffed.
func SaveImage(dir, b64, fileName string) (string, []byte, error) {
	data, err := DecodePayload(b64)
	if err != nil {
		return "", nil, fmt.Errorf("%w: decoding base64: %w", ErrWrite, err)
	}
	path, err := writeImageFile(dir, fileName, data)
	if err != nil {
		return "", nil, err
	}
	return path, data, nil
}

// writeImageFile writes data through a temp file in dir, syncs and renames it,
// so a returned path always points at flushed bytes.
func writeImageFile(dir, fileName string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: mkdir %s: %w", ErrWrite, dir, err)
	}
	finalPath, err := filepath.Abs(filepath.Join(dir, fileName+imageExt))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+fileName+"-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", ErrWrite, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("%w: sync: %w", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		cleanup()
		return "", fmt.Errorf("%w: rename: %w", ErrWrite, err)
	}
	return finalPath, nil
}
