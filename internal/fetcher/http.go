package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/reegis/coastdat-cli/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent    string
	Timeout      time.Duration
	Retry        resilience.RetryConfig
	RateLimiters map[string]*rate.Limiter
}

// DefaultRateLimiters returns per-host rate limiters for the known archive
// mirrors. Unknown hosts get a generous default.
func DefaultRateLimiters() map[string]*rate.Limiter {
	return map[string]*rate.Limiter{
		"coastdat.openfred.info":          rate.NewLimiter(2, 2),
		"data.open-power-system-data.org": rate.NewLimiter(5, 5),
		"daten.gdz.bkg.bund.de":           rate.NewLimiter(5, 5),
	}
}

// HTTPFetcher implements Fetcher using net/http with retry and per-host
// rate limiting. Archive payloads can be large, the default timeout is
// sized for whole-year weather files.
type HTTPFetcher struct {
	client   *http.Client
	opts     HTTPOptions
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Minute
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "coastdat-cli/1.0"
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	limiters := make(map[string]*rate.Limiter)
	for k, v := range opts.RateLimiters {
		limiters[k] = v
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: limiters,
	}
}

func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rate.NewLimiter(10, 10)
	}
	if lim, ok := f.limiters[u.Host]; ok {
		return lim
	}
	return rate.NewLimiter(10, 10)
}

// Download fetches the URL and returns the response body. A non-200 status
// is an error; the caller decides whether the omission is fatal.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	var body io.ReadCloser

	err := resilience.Do(ctx, f.opts.Retry, func(ctx context.Context) error {
		if err := f.limiterFor(rawURL).Wait(ctx); err != nil {
			return eris.Wrap(err, "fetcher: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return eris.Wrap(err, "fetcher: build request")
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return resilience.Transient(eris.Wrap(err, "fetcher: request"))
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			err := eris.Errorf("fetcher: %s returned status %d", rawURL, resp.StatusCode)
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return resilience.Transient(err)
			}
			return err
		}

		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// DownloadToFile streams the URL to a local file. The write goes through a
// temp file so a failed download never leaves a truncated target behind.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, eris.Wrap(err, "fetcher: create dest dir")
	}

	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, eris.Wrapf(err, "fetcher: write %s", path)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, eris.Wrapf(err, "fetcher: move %s into place", path)
	}

	zap.L().Debug("download complete",
		zap.String("url", rawURL),
		zap.String("path", path),
		zap.Int64("bytes", n),
	)
	return n, nil
}

// DownloadIfMissing fetches the URL only when the target file is absent or
// empty. Returns true when a download happened.
func (f *HTTPFetcher) DownloadIfMissing(ctx context.Context, rawURL string, path string) (bool, error) {
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		zap.L().Debug("file exists, skipping download", zap.String("path", path))
		return false, nil
	}
	_, err := f.DownloadToFile(ctx, rawURL, path)
	return err == nil, err
}
