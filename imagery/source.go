package imagery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Source is where a variation input comes from: a LocalSource or a RemoteSource.
type Source interface {
	// Name is the free-form label the caller gave the image, before sanitizing.
	Name() string
	source()
}

type LocalSource struct {
	Path     string
	FileName string
}

type RemoteSource struct {
	URL      string
	FileName string
}

func (s LocalSource) Name() string  { return s.FileName }
func (s RemoteSource) Name() string { return s.FileName }

func (LocalSource) source()  {}
func (RemoteSource) source() {}

// ParseSource turns "name=location" into a Source. Locations starting with
// http:// or https:// are remote. Without "name=" the name is the location's
// base name minus its extension.
func ParseSource(arg string) (Source, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, fmt.Errorf("%w: empty image source", ErrConfiguration)
	}
	name, location, found := strings.Cut(arg, "=")
	if !found || strings.Contains(name, "/") || strings.Contains(name, ":") {
		name, location = "", arg
	}
	if location == "" {
		return nil, fmt.Errorf("%w: image source %q has no location", ErrConfiguration, arg)
	}
	if name == "" {
		base := filepath.Base(strings.SplitN(location, "?", 2)[0])
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return RemoteSource{URL: location, FileName: name}, nil
	}
	return LocalSource{Path: location, FileName: name}, nil
}

type fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

// acquire returns the raw bytes of src and the stage to blame on failure.
func (f fetcher) acquire(ctx context.Context, src Source) ([]byte, Stage, error) {
	switch s := src.(type) {
	case RemoteSource:
		data, err := f.download(ctx, s.URL)
		return data, StageDownload, err
	case LocalSource:
		data, err := readLocal(s.Path)
		return data, StageRead, err
	default:
		return nil, StageRead, fmt.Errorf("%w: unsupported source %T", ErrFileRead, src)
	}
}

func (f fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, downloadErr(rawURL, err)
	}
	client := f.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, downloadErr(rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrDownload, err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrDownload, f.maxBytes)
	}
	return data, nil
}

// downloadErr strips the full URL that net/http puts into its errors.
func downloadErr(rawURL string, err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	return fmt.Errorf("%w: get %s: %w", ErrDownload, RedactURL(rawURL), err)
}

// RedactURL drops credentials, query and fragment from raw and masks path
// segments carrying a bot token, as telegram file links do.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, "bot") && strings.Contains(seg, ":") {
			segments[i] = "bot-redacted"
		}
	}
	u.Path = strings.Join(segments, "/")
	u.RawPath = ""
	return u.String()
}

func readLocal(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileRead, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileRead, err)
	}
	return data, nil
}
