package novelpub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

// Fetch defaults.
const (
	DefaultUserAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultMaxRedirects = 10
	DefaultMaxRetries   = 3
	DefaultTimeout      = 30 * time.Second

	// DefaultMaxBodySize bounds a single response body (32 MB).
	DefaultMaxBodySize int64 = 32 * 1024 * 1024
)

// FetcherConfig configures a Fetcher. Zero fields take the defaults above,
// except MaxRetries where zero disables retrying.
type FetcherConfig struct {
	UserAgent    string
	MaxRedirects int
	MaxRetries   int
	Timeout      time.Duration
	MaxBodySize  int64

	// Backoff returns the wait before retry attempt n (0-indexed).
	// Defaults to exponential backoff with jitter.
	Backoff func(attempt int) time.Duration

	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper

	Logger *slog.Logger
}

// Fetcher downloads pages, following redirects itself so that the hop limit
// and logging stay under its control. It is safe for concurrent use.
type Fetcher struct {
	client *http.Client
	cfg    FetcherConfig
	log    *slog.Logger
}

// NewFetcher returns a Fetcher with cfg's zero fields defaulted.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Backoff == nil {
		cfg.Backoff = Backoff
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		cfg: cfg,
		log: loggerOrDiscard(cfg.Logger),
	}
}

// Backoff returns a duration for attempt n (0-indexed) with jitter, capped at 30s.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Get fetches rawURL and returns the response body.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	body, _, err := f.GetWithType(ctx, rawURL)
	return body, err
}

// GetWithType fetches rawURL and returns the body and its Content-Type.
// Transient failures (transport errors, 429, 5xx) are retried up to
// MaxRetries times.
func (f *Fetcher) GetWithType(ctx context.Context, rawURL string) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := f.cfg.Backoff(attempt - 1)
			f.log.Debug("retrying fetch", "url", rawURL, "attempt", attempt, "wait", wait, "error", lastErr)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, "", ctx.Err()
			case <-timer.C:
			}
		}

		body, contentType, err := f.follow(ctx, rawURL)
		if err == nil {
			return body, contentType, nil
		}
		if !isRetryable(err) || ctx.Err() != nil {
			return nil, "", err
		}
		lastErr = err
	}
	return nil, "", lastErr
}

// follow performs one attempt, following at most MaxRedirects redirects.
func (f *Fetcher) follow(ctx context.Context, rawURL string) ([]byte, string, error) {
	current := rawURL
	for hops := 0; ; hops++ {
		if hops > f.cfg.MaxRedirects {
			return nil, "", fmt.Errorf("%w: %s (%d hops)", ErrRedirectTooDeep, rawURL, f.cfg.MaxRedirects)
		}

		req, err := f.newRequest(ctx, current)
		if err != nil {
			return nil, "", err
		}
		f.log.Debug("fetching", "url", current)
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, "", &transientError{err: err}
		}

		switch {
		case resp.StatusCode >= 300 && resp.StatusCode < 400:
			resp.Body.Close()
			loc := resp.Header.Get("Location")
			if loc == "" {
				return nil, "", fmt.Errorf("%w: %s: %s without Location", ErrHTTPRequestFailed, current, resp.Status)
			}
			next, err := resp.Request.URL.Parse(loc)
			if err != nil {
				return nil, "", fmt.Errorf("%w: %s: bad Location %q: %v", ErrHTTPRequestFailed, current, loc, err)
			}
			f.log.Debug("following redirect", "url", current, "location", next.String(), "status", resp.StatusCode)
			current = next.String()
			continue

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			body, err := f.readBody(resp)
			if err != nil {
				return nil, "", err
			}
			return body, resp.Header.Get("Content-Type"), nil

		default:
			resp.Body.Close()
			err := fmt.Errorf("%w: %s: %s", ErrHTTPRequestFailed, current, resp.Status)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return nil, "", &transientError{err: err}
			}
			return nil, "", err
		}
	}
}

func (f *Fetcher) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("novelpub: build request for %q: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	return req, nil
}

// readBody reads at most MaxBodySize bytes and rejects empty bodies.
func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	limit := f.cfg.MaxBodySize
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("novelpub: read body of %s: %w", resp.Request.URL, err)}
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s: body exceeds %d bytes", ErrHTTPRequestFailed, resp.Request.URL, limit)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s: empty body", ErrHTTPRequestFailed, resp.Request.URL)
	}
	return data, nil
}

// transientError marks a failure worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var t *transientError
	return errors.As(err, &t)
}

// loggerOrDiscard returns l, or a logger that drops everything when l is nil.
func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
