package engine

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"golang.org/x/time/rate"
)

// newHTTPClient creates an HTTP client with proper settings for talking to
// the video host. A fresh client per process is fine; connection reuse is an
// optimization, not a correctness requirement.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  false,
			TLSHandshakeTimeout: 15 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return nil
		},
	}
}

// limiter throttles outgoing host calls. All strategies share one limiter
// because the host rate-limits by IP, not by endpoint.
var limiter *rate.Limiter

func initLimiter(rps float64) {
	if rps <= 0 {
		limiter = nil
		return
	}
	limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

// DoRequest sends req through the shared client, honoring the host limiter.
func DoRequest(req *http.Request) (*http.Response, error) {
	if limiter != nil {
		if err := limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return cfg.HTTPClient.Do(req)
}

// FetchBrowser fetches a URL through the fingerprinted browser client.
// Returns stealth.ErrNoBrowser-equivalent error when the client is not configured.
func FetchBrowser(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	if cfg.BrowserClient == nil {
		return nil, 0, errors.New("browser client not configured")
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}
	h := stealth.ChromeHeaders()
	for k, v := range headers {
		h[k] = v
	}
	body, _, status, err := cfg.BrowserClient.Do(http.MethodGet, url, h, nil)
	return body, status, err
}

// ReadResponseBody reads the response body, handling gzip decompression if needed.
func ReadResponseBody(resp *http.Response, limit int64) ([]byte, error) {
	var r io.Reader = resp.Body
	if limit > 0 {
		r = io.LimitReader(resp.Body, limit)
	}
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	}
	return io.ReadAll(r)
}
