package feed

import (
	"errors"
	"time"
)

// DownloaderConfig holds configuration for the carrier feed endpoint
type DownloaderConfig struct {
	// APIKey is the provider credential substituted into the URL path
	APIKey string
	// BaseURL is a URL template with a single %s placeholder for the API key
	BaseURL string
	// RateLimitInterval is the minimum spacing between two feed requests
	RateLimitInterval time.Duration
	// MaxResponseBytes caps how much of the body is read
	MaxResponseBytes int64
}

const (
	// ProductionFeedURL is the provider's carrier list endpoint
	ProductionFeedURL = "https://www.zasilkovna.cz/api/v4/%s/branch.json?address-delivery"

	// DefaultRateLimitInterval allows one feed request every ten seconds
	DefaultRateLimitInterval = 10 * time.Second

	// DefaultMaxResponseBytes is the maximum allowed feed size (10MB)
	DefaultMaxResponseBytes int64 = 10 * 1024 * 1024
)

// Errors for feed configuration
var (
	ErrFeedConfigMissingAPIKey = errors.New("feed: api key is required")
)

// NewDownloaderConfig creates a feed configuration with defaults
func NewDownloaderConfig(apiKey string) *DownloaderConfig {
	return &DownloaderConfig{
		APIKey:            apiKey,
		BaseURL:           ProductionFeedURL,
		RateLimitInterval: DefaultRateLimitInterval,
		MaxResponseBytes:  DefaultMaxResponseBytes,
	}
}

// Validate validates the configuration and fills in defaults
func (c *DownloaderConfig) Validate() error {
	if c.APIKey == "" {
		return ErrFeedConfigMissingAPIKey
	}
	if c.BaseURL == "" {
		c.BaseURL = ProductionFeedURL
	}
	if c.RateLimitInterval < 0 {
		c.RateLimitInterval = 0
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = DefaultMaxResponseBytes
	}
	return nil
}
