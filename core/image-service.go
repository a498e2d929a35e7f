package core

import "context"

// ImageService is what front-ends like the telegram bot need from the image pipeline.
// Both methods return the paths of the images written to disk.
type ImageService interface {
	Imagine(ctx context.Context, owner int64, prompt string) ([]string, error)
	Vary(ctx context.Context, owner int64, imageURL string) ([]string, error)
}
