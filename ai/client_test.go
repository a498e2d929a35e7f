package ai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("sk-test", srv.URL+"/v1", "dall-e-2", 5*time.Second, discardLogger())
}

func TestGenerate_RequestsBase64AndPassesParams(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data": []map[string]any{
				{"b64_json": "aGVsbG8="},
				{"url": "https://example.com/x.png"},
			},
		})
	})

	payloads, err := c.Generate(context.Background(), GenerateParams{
		Prompt: "a quaint house",
		N:      2,
		Size:   "512x512",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"aGVsbG8=", ""}, payloads)

	assert.Equal(t, "b64_json", got["response_format"])
	assert.Equal(t, "a quaint house", got["prompt"])
	assert.Equal(t, "dall-e-2", got["model"])
	assert.Equal(t, "512x512", got["size"])
	assert.EqualValues(t, 2, got["n"])
}

func TestGenerate_ProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	})

	_, err := c.Generate(context.Background(), GenerateParams{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestCreateVariation_UploadsNamedPNG(t *testing.T) {
	png := []byte("\x89PNG fake bytes")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/images/variations", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		files := r.MultipartForm.File["image"]
		require.Len(t, files, 1)
		assert.Equal(t, "my_photo_.png", files[0].Filename)
		assert.Equal(t, "image/png", files[0].Header.Get("Content-Type"))
		f, err := files[0].Open()
		require.NoError(t, err)
		body, _ := io.ReadAll(f)
		_ = f.Close()
		assert.Equal(t, png, body)

		assert.Equal(t, "1", r.FormValue("n"))
		assert.Equal(t, "512x512", r.FormValue("size"))
		assert.Equal(t, "b64_json", r.FormValue("response_format"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"b64_json": "dmFyaWF0aW9u"}},
		})
	})

	b64, err := c.CreateVariation(context.Background(), png, "my_photo_", "512x512")
	require.NoError(t, err)
	assert.Equal(t, "dmFyaWF0aW9u", b64)
}

func TestCreateVariation_EmptyResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
	})

	b64, err := c.CreateVariation(context.Background(), []byte("x"), "empty", "256x256")
	require.NoError(t, err)
	assert.Empty(t, b64)
}
