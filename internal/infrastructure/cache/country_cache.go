package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/erp/carrier-sync/internal/domain/carrier"
	"github.com/redis/go-redis/v9"
)

const (
	defaultCountryKeyPrefix = "carrier:country:"
	// DefaultCountryTTL bounds how long a country list is served without a sync.
	DefaultCountryTTL = time.Hour
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCountryCache caches per-country carrier lists in Redis.
// Keys look like carrier:country:v<gen>:<country>; invalidation increments
// carrier:country:gen so every older key becomes unreachable and expires on its own.
type RedisCountryCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCountryCache connects to Redis and returns a country cache
func NewRedisCountryCache(cfg RedisConfig) (*RedisCountryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCountryCacheWithClient(client, "", cfg.TTL), nil
}

// NewRedisCountryCacheWithClient creates a cache on an existing Redis client
func NewRedisCountryCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisCountryCache {
	if keyPrefix == "" {
		keyPrefix = defaultCountryKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultCountryTTL
	}
	return &RedisCountryCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisCountryCache) genKey() string {
	return c.keyPrefix + "gen"
}

func (c *RedisCountryCache) countryKey(gen int64, country string) string {
	return c.keyPrefix + "v" + strconv.FormatInt(gen, 10) + ":" + country
}

// Generation returns the current cache generation; 0 before the first invalidation
func (c *RedisCountryCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// Get returns the cached carriers of a country in the given generation
func (c *RedisCountryCache) Get(ctx context.Context, gen int64, country string) ([]carrier.Summary, bool, error) {
	data, err := c.client.Get(ctx, c.countryKey(gen, country)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read country %q: %w", country, err)
	}

	var carriers []carrier.Summary
	if err := json.Unmarshal(data, &carriers); err != nil {
		return nil, false, fmt.Errorf("failed to decode country %q: %w", country, err)
	}
	return carriers, true, nil
}

// Set stores the carriers of a country in the given generation with the cache TTL
func (c *RedisCountryCache) Set(ctx context.Context, gen int64, country string, carriers []carrier.Summary) error {
	if carriers == nil {
		carriers = []carrier.Summary{}
	}
	data, err := json.Marshal(carriers)
	if err != nil {
		return fmt.Errorf("failed to encode country %q: %w", country, err)
	}
	if err := c.client.Set(ctx, c.countryKey(gen, country), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write country %q: %w", country, err)
	}
	return nil
}

// Invalidate moves the cache to a new generation
func (c *RedisCountryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.genKey()).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisCountryCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisCountryCache) GetClient() *redis.Client {
	return c.client
}
