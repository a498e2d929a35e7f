package imagery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"Pixie/ai"
	"Pixie/lib/sl"
	"Pixie/metrics"
	"Pixie/storage"
)

// Provider is the remote image API. Payloads are base64, an empty string
// means the response carried no image data for that slot.
type Provider interface {
	Generate(ctx context.Context, params ai.GenerateParams) ([]string, error)
	CreateVariation(ctx context.Context, png []byte, fileName, size string) (string, error)
}

// Ledger records every image written to disk.
type Ledger interface {
	SaveImage(rec *storage.ImageRecord) error
}

// Settings is the configuration shared by the generation and variation workflows.
type Settings struct {
	APIKey   string
	Provider Provider
	// OutputDir is used when a request does not name its own directory.
	OutputDir string
	// VariationSize is sent to the provider with every variation, whatever the crop size.
	VariationSize    string
	RequestTimeout   time.Duration
	DownloadTimeout  time.Duration
	MaxDownloadBytes int64
	HTTPClient       *http.Client
	Ledger           Ledger
	Metrics          *metrics.Metrics
	Log              *slog.Logger
}

const defaultVariationSize = "512x512"

// preflight runs the guards in the order every workflow needs them, before any I/O.
func (s *Settings) preflight(outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = s.OutputDir
	}
	if err := CheckOutputDir(outputDir); err != nil {
		return "", err
	}
	if err := CheckAPIKey(s.APIKey); err != nil {
		return "", err
	}
	if s.Provider == nil {
		return "", fmt.Errorf("%w: no image provider configured", ErrConfiguration)
	}
	return outputDir, nil
}

func (s *Settings) logger(module string) *slog.Logger {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	return log.With(sl.Module(module))
}

func (s *Settings) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// record writes rec to the ledger; a ledger failure never fails the image.
func (s *Settings) record(log *slog.Logger, rec *storage.ImageRecord, data []byte) {
	s.Metrics.ImagePersisted(rec.Kind)
	if s.Ledger == nil {
		return
	}
	sum := sha256.Sum256(data)
	rec.Bytes = len(data)
	rec.Sha256 = hex.EncodeToString(sum[:])
	rec.CreatedAt = time.Now()
	if err := s.Ledger.SaveImage(rec); err != nil {
		log.Warn("recording image", sl.Path(rec.Path), sl.Err(err))
	}
}
