package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/erp/carrier-sync/internal/domain/carrier"
)

// Downloader retrieves the raw carrier feed from the provider.
//
// Each Fetch issues exactly one GET. There are no retries and no client
// timeout; cancellation comes from the caller's context.
type Downloader struct {
	config     *DownloaderConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewDownloader creates a new feed downloader with the given configuration
func NewDownloader(config *DownloaderConfig) (*Downloader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if config.RateLimitInterval > 0 {
		limit = rate.Every(config.RateLimitInterval)
	}

	return &Downloader{
		config:     config,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// WithHTTPClient replaces the HTTP client, mainly for tests
func (d *Downloader) WithHTTPClient(client *http.Client) *Downloader {
	d.httpClient = client
	return d
}

// URL returns the feed URL with the API key filled in
func (d *Downloader) URL() string {
	return feedURL(d.config.BaseURL, d.config.APIKey)
}

// Fetch downloads the feed body unmodified. Network errors, non-2xx statuses
// and bodies over MaxResponseBytes are reported as carrier.ErrTransportFailure.
func (d *Downloader) Fetch(ctx context.Context) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", carrier.ErrTransportFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", carrier.ErrTransportFailure, redact(err.Error(), d.config.APIKey))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", carrier.ErrTransportFailure, redact(err.Error(), d.config.APIKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", carrier.ErrTransportFailure, resp.StatusCode)
	}

	// One byte past the limit tells an oversized body from one that fits exactly.
	body, err := io.ReadAll(io.LimitReader(resp.Body, d.config.MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", carrier.ErrTransportFailure, err)
	}
	if int64(len(body)) > d.config.MaxResponseBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", carrier.ErrTransportFailure, d.config.MaxResponseBytes)
	}

	return body, nil
}

func feedURL(template, apiKey string) string {
	return fmt.Sprintf(template, url.PathEscape(apiKey))
}

// redact keeps the API key out of error messages; url.Error embeds the full URL.
func redact(msg, apiKey string) string {
	if apiKey == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.PathEscape(apiKey), "***")
	return strings.ReplaceAll(msg, apiKey, "***")
}
