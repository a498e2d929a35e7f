package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// GenerateParams are passed to the generation endpoint as they are.
// There is no response format field: the client always requests b64_json.
type GenerateParams struct {
	Prompt  string
	Model   string
	N       int
	Size    string
	Quality string
	Style   string
	User    string
}

func (c *Client) newImageRequest(p GenerateParams) openai.ImageRequest {
	model := p.Model
	if model == "" {
		model = c.model
	}
	return openai.ImageRequest{
		Prompt:         p.Prompt,
		Model:          model,
		N:              p.N,
		Size:           p.Size,
		Quality:        p.Quality,
		Style:          p.Style,
		User:           p.User,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	}
}

// Generate returns the base64 payload of every image in the response, in order.
// An entry without payload is returned as an empty string.
func (c *Client) Generate(ctx context.Context, p GenerateParams) ([]string, error) {
	req := c.newImageRequest(p)
	c.log.Info("generating images",
		slog.String("model", req.Model),
		slog.Int("n", req.N),
		slog.String("size", req.Size),
	)

	resp, err := c.api.CreateImage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating image: %w", err)
	}

	payloads := make([]string, len(resp.Data))
	for i, d := range resp.Data {
		payloads[i] = d.B64JSON
	}
	c.log.Debug("images generated", slog.Int("count", len(payloads)))
	return payloads, nil
}
