package ai

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"Pixie/lib/sl"

	"github.com/sashabaranov/go-openai"
)

const defaultTimeout = 120 * time.Second

// Client calls the OpenAI images endpoints and always asks for base64 payloads.
type Client struct {
	api   *openai.Client
	model string
	log   *slog.Logger
}

// NewClient builds a client for apiKey. An empty baseURL means the public
// OpenAI endpoint; otherwise it must include the /v1 suffix.
func NewClient(apiKey, baseURL, model string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	log = log.With(sl.Module("openai-images"))
	log.Debug("client configured", sl.Secret(apiKey), slog.String("model", model))

	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
		log:   log,
	}
}
