package imagery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"Pixie/lib/sl"
	"Pixie/storage"

	"github.com/google/uuid"
)

const croppedDir = "cropped"

type VariationRequest struct {
	Images    []Source
	OutputDir string
	// SaveCropped writes the square PNG to <OutputDir>/cropped/<name>.jpg before upload.
	SaveCropped bool
	// Size is the crop size; empty means 512x512.
	Size Size
}

// NewVariationRequest returns a request with cropped artifacts saved and the default size.
func NewVariationRequest(outputDir string, images ...Source) VariationRequest {
	return VariationRequest{
		Images:      images,
		OutputDir:   outputDir,
		SaveCropped: true,
		Size:        DefaultSize,
	}
}

// ItemResult is the outcome for one source image. Path is set only when the
// variation was flushed to disk.
type ItemResult struct {
	Name        string
	FileName    string
	CroppedPath string
	Path        string
	Err         error
}

type VariationResult struct {
	RunId string
	Items []ItemResult
}

// Files returns the variation files written, in input order.
func (r *VariationResult) Files() []string {
	var files []string
	for _, it := range r.Items {
		if it.Err == nil && it.Path != "" {
			files = append(files, it.Path)
		}
	}
	return files
}

func (r *VariationResult) Failed() []ItemResult {
	var failed []ItemResult
	for _, it := range r.Items {
		if it.Err != nil {
			failed = append(failed, it)
		}
	}
	return failed
}

func (r *VariationResult) Status() Status {
	failed := len(r.Failed())
	switch {
	case failed == 0:
		return StatusComplete
	case failed < len(r.Items):
		return StatusPartial
	default:
		return StatusFailed
	}
}

type Variator struct {
	s     Settings
	fetch fetcher
	log   *slog.Logger
}

func NewVariator(s Settings) *Variator {
	if s.VariationSize == "" {
		s.VariationSize = defaultVariationSize
	}
	return &Variator{
		s: s,
		fetch: fetcher{
			client:   s.HTTPClient,
			timeout:  s.DownloadTimeout,
			maxBytes: s.MaxDownloadBytes,
		},
		log: s.logger("variation"),
	}
}

// Vary processes the images one at a time, in order. A failing image is
// recorded in its ItemResult and the next one is processed; only
// configuration problems abort the whole request.
func (v *Variator) Vary(ctx context.Context, req VariationRequest) (*VariationResult, error) {
	outputDir, err := v.s.preflight(req.OutputDir)
	if err != nil {
		return nil, err
	}
	size, err := ParseSize(string(req.Size))
	if err != nil {
		return nil, err
	}
	if len(req.Images) == 0 {
		return nil, fmt.Errorf("%w: no images to vary", ErrConfiguration)
	}
	for i, src := range req.Images {
		if src == nil || Sanitize(src.Name()) == "" {
			return nil, fmt.Errorf("%w: image %d has no file name", ErrConfiguration, i)
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %w", ErrWrite, outputDir, err)
	}

	res := &VariationResult{RunId: uuid.NewString()}
	seen := make(map[string]string, len(req.Images))
	for _, src := range req.Images {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		fileName := Sanitize(src.Name())
		if prev, ok := seen[fileName]; ok {
			v.log.Warn("sanitized file name collides, last image wins",
				sl.Image(src.Name()), slog.String("previous", prev), slog.String("file", fileName))
		}
		seen[fileName] = src.Name()

		res.Items = append(res.Items, v.varyOne(ctx, res.RunId, src, fileName, outputDir, size, req.SaveCropped))
	}

	v.log.Info("variations done",
		slog.String("run", res.RunId),
		slog.Int("images", len(res.Items)),
		slog.Int("failed", len(res.Failed())),
	)
	return res, nil
}

func (v *Variator) varyOne(ctx context.Context, runId string, src Source, fileName, outputDir string, size Size, saveCropped bool) ItemResult {
	item := ItemResult{Name: src.Name(), FileName: fileName}
	log := v.log.With(sl.Image(item.Name), slog.String("run", runId))
	fail := func(stage Stage, err error) ItemResult {
		item.Err = stageErr(item.Name, stage, err)
		v.s.Metrics.Failure(string(stage))
		log.Error("variation failed", slog.String("stage", string(stage)), sl.Err(err))
		return item
	}

	data, stage, err := v.fetch.acquire(ctx, src)
	if err != nil {
		return fail(stage, err)
	}
	log.Debug("acquired image", slog.Int("bytes", len(data)))

	cropped, err := CropToSquare(data, size.Dimension())
	if err != nil {
		return fail(StageDecode, err)
	}
	if saveCropped {
		path, err := writeImageFile(filepath.Join(outputDir, croppedDir), fileName, cropped.Data)
		if err != nil {
			return fail(StagePersist, err)
		}
		item.CroppedPath = path
		log.Info("cropped file", slog.Int("height", cropped.Height), slog.Int("width", cropped.Width), sl.Path(path))
	}

	log.Info("generating image variation", slog.String("size", v.s.VariationSize))
	callCtx, cancel := v.s.withTimeout(ctx, v.s.RequestTimeout)
	start := time.Now()
	b64, err := v.s.Provider.CreateVariation(callCtx, cropped.Data, fileName, v.s.VariationSize)
	cancel()
	v.s.Metrics.ObserveProvider("variation", time.Since(start), err)
	if err != nil {
		return fail(StageUpload, fmt.Errorf("%w: %w", ErrProvider, err))
	}
	if b64 == "" {
		return fail(StageUpload, ErrMissingPayload)
	}

	path, out, err := SaveImage(outputDir, b64, fileName)
	if err != nil {
		return fail(StagePersist, err)
	}
	item.Path = path
	log.Info("generated and saved image", sl.Path(path))

	source := ""
	switch s := src.(type) {
	case LocalSource:
		source = s.Path
	case RemoteSource:
		source = RedactURL(s.URL)
	}
	v.s.record(log, &storage.ImageRecord{
		RunId:    runId,
		Kind:     storage.KindVariation,
		Name:     item.Name,
		FileName: fileName,
		Path:     path,
		Source:   source,
		Size:     v.s.VariationSize,
	}, out)
	return item
}
