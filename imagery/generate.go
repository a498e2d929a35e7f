package imagery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Pixie/ai"
	"Pixie/lib/sl"
	"Pixie/storage"

	"github.com/google/uuid"
)

type GenerationRequest struct {
	OutputDir string
	FileName  string
	Params    ai.GenerateParams
}

type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
)

// GenerationResult lists the files actually written, in order, and why the
// run stopped short when it did.
type GenerationResult struct {
	RunId string
	Files []string
	Err   error
}

func (r *GenerationResult) Status() Status {
	switch {
	case r.Err == nil:
		return StatusComplete
	case len(r.Files) > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

type Generator struct {
	s   Settings
	log *slog.Logger
}

func NewGenerator(s Settings) *Generator {
	return &Generator{s: s, log: s.logger("generation")}
}

// Generate asks the provider for images from a prompt and saves each one.
// Only configuration problems are returned as error; everything after the
// guards is reported through the result.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	outputDir, err := g.s.preflight(req.OutputDir)
	if err != nil {
		return nil, err
	}
	base := Sanitize(req.FileName)
	if base == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrConfiguration)
	}

	res := &GenerationResult{RunId: uuid.NewString()}
	log := g.log.With(sl.Image(req.FileName), slog.String("run", res.RunId))
	fail := func(stage Stage, err error) *GenerationResult {
		res.Err = stageErr(req.FileName, stage, err)
		g.s.Metrics.Failure(string(stage))
		log.Error("generation failed", slog.String("stage", string(stage)), slog.Int("saved", len(res.Files)), sl.Err(err))
		return res
	}

	log.Info("generating images...")
	callCtx, cancel := g.s.withTimeout(ctx, g.s.RequestTimeout)
	start := time.Now()
	payloads, err := g.s.Provider.Generate(callCtx, req.Params)
	cancel()
	g.s.Metrics.ObserveProvider("generate", time.Since(start), err)
	if err != nil {
		return fail(StageGenerate, fmt.Errorf("%w: %w", ErrProvider, err)), nil
	}

	outputs, err := planOutputs(base, req.Params.N, payloads)
	if err != nil {
		return fail(StageGenerate, err), nil
	}

	for _, out := range outputs {
		path, data, err := SaveImage(outputDir, out.b64, out.name)
		if err != nil {
			return fail(StagePersist, err), nil
		}
		log.Info("saved image", sl.Path(path))
		res.Files = append(res.Files, path)
		g.s.record(log, &storage.ImageRecord{
			RunId:    res.RunId,
			Kind:     storage.KindGeneration,
			Name:     req.FileName,
			FileName: out.name,
			Path:     path,
			Prompt:   req.Params.Prompt,
			Size:     req.Params.Size,
		}, data)
	}
	return res, nil
}

type plannedOutput struct {
	name string
	b64  string
}

// planOutputs names the files to write. With n unset or 1 only the first
// payload is kept under base; otherwise payload i goes to base-i. Every
// expected payload must be present before anything is written.
func planOutputs(base string, n int, payloads []string) ([]plannedOutput, error) {
	if len(payloads) == 0 {
		return nil, ErrMissingPayload
	}
	if n <= 1 {
		if strings.TrimSpace(payloads[0]) == "" {
			return nil, ErrMissingPayload
		}
		return []plannedOutput{{name: base, b64: payloads[0]}}, nil
	}
	if len(payloads) < n {
		return nil, fmt.Errorf("%w: expected %d images, got %d", ErrMissingPayload, n, len(payloads))
	}
	outputs := make([]plannedOutput, 0, len(payloads))
	for i, p := range payloads[:n] {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("%w: image %d", ErrMissingPayload, i)
		}
		outputs = append(outputs, plannedOutput{name: fmt.Sprintf("%s-%d", base, i), b64: p})
	}
	return outputs, nil
}
