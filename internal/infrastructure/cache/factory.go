package cache

import (
	"context"
	"fmt"

	"github.com/erp/carrier-sync/internal/domain/carrier"
	"github.com/erp/carrier-sync/internal/infrastructure/config"
	"go.uber.org/zap"
)

// CountryCache is the cache contract shared by the Redis and in-memory implementations
type CountryCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, country string) ([]carrier.Summary, bool, error)
	Set(ctx context.Context, gen int64, country string, carriers []carrier.Summary) error
	Invalidate(ctx context.Context) error
}

// CountryCacheFactory creates country caches based on configuration
type CountryCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// CountryCacheFactoryOption is a functional option for configuring the factory
type CountryCacheFactoryOption func(*CountryCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) CountryCacheFactoryOption {
	return func(f *CountryCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) CountryCacheFactoryOption {
	return func(f *CountryCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewCountryCacheFactory creates a new factory
func NewCountryCacheFactory(cfg config.RedisConfig, opts ...CountryCacheFactoryOption) *CountryCacheFactory {
	f := &CountryCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed country cache
func (f *CountryCacheFactory) CreateRedisCache() (*RedisCountryCache, error) {
	c, err := NewRedisCountryCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
		TTL:      f.redisConfig.CacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis country cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates an in-memory country cache.
// In-memory caches are not shared between instances, so a sync on one
// instance does not invalidate the others before the TTL runs out.
func (f *CountryCacheFactory) CreateInMemoryCache() *InMemoryCountryCache {
	return NewInMemoryCountryCache(f.redisConfig.CacheTTL)
}

// CreateCache returns the in-memory cache when Redis is disabled, otherwise
// tries Redis and falls back to in-memory if allowed
func (f *CountryCacheFactory) CreateCache() (CountryCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory country cache")
		return f.CreateInMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("Using Redis country cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for country cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory country cache. "+
		"Other instances will not see invalidations until entries expire.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}

var (
	_ CountryCache = (*RedisCountryCache)(nil)
	_ CountryCache = (*InMemoryCountryCache)(nil)
)
