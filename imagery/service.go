package imagery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"Pixie/ai"
	"Pixie/core"
)

var _ core.ImageService = (*Service)(nil)

// Service runs both workflows on behalf of a chat front-end. Every owner
// gets its own subdirectory of the output directory.
type Service struct {
	generator   *Generator
	variator    *Variator
	outputDir   string
	size        Size
	saveCropped bool
	now         func() time.Time
}

func NewService(s Settings, size Size, saveCropped bool) *Service {
	return &Service{
		generator:   NewGenerator(s),
		variator:    NewVariator(s),
		outputDir:   s.OutputDir,
		size:        size,
		saveCropped: saveCropped,
		now:         time.Now,
	}
}

func (s *Service) ownerDir(owner int64) string {
	return filepath.Join(s.outputDir, fmt.Sprintf("chat_%d", owner))
}

func (s *Service) Imagine(ctx context.Context, owner int64, prompt string) ([]string, error) {
	res, err := s.generator.Generate(ctx, GenerationRequest{
		OutputDir: s.ownerDir(owner),
		FileName:  fmt.Sprintf("imagine %d", s.now().Unix()),
		Params: ai.GenerateParams{
			Prompt: prompt,
			Size:   string(s.size),
		},
	})
	if err != nil {
		return nil, err
	}
	return res.Files, res.Err
}

func (s *Service) Vary(ctx context.Context, owner int64, imageURL string) ([]string, error) {
	req := NewVariationRequest(s.ownerDir(owner), RemoteSource{
		URL:      imageURL,
		FileName: fmt.Sprintf("vary %d", s.now().Unix()),
	})
	req.Size = s.size
	req.SaveCropped = s.saveCropped

	res, err := s.variator.Vary(ctx, req)
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, it := range res.Failed() {
		errs = append(errs, it.Err)
	}
	return res.Files(), errors.Join(errs...)
}
