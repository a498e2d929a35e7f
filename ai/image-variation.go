package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// CreateVariation uploads png in memory as <fileName>.png and asks dall-e-2
// (the only model with a variations endpoint) for a single variation of the
// given size. It returns the base64 payload, empty if the response carried none.
func (c *Client) CreateVariation(ctx context.Context, png []byte, fileName, size string) (string, error) {
	c.log.Info("generating image variation",
		slog.String("file", fileName),
		slog.String("size", size),
	)

	resp, err := c.api.CreateVariImage(ctx, openai.ImageVariRequest{
		Image:          openai.WrapReader(bytes.NewReader(png), fileName+".png", "image/png"),
		Model:          openai.CreateImageModelDallE2,
		N:              1,
		Size:           size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("creating variation: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	return resp.Data[0].B64JSON, nil
}
