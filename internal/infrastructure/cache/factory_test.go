package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/erp/carrier-sync/internal/infrastructure/config"
)

// unreachableRedis points at a port nothing listens on.
func unreachableRedis() config.RedisConfig {
	return config.RedisConfig{
		Enabled:  true,
		Host:     "127.0.0.1",
		Port:     1,
		CacheTTL: 5 * time.Minute,
	}
}

func TestCountryCacheFactory_CreateCache(t *testing.T) {
	t.Run("redis disabled uses in-memory", func(t *testing.T) {
		f := NewCountryCacheFactory(config.RedisConfig{CacheTTL: time.Minute}, WithLogger(zaptest.NewLogger(t)))

		c, err := f.CreateCache()
		require.NoError(t, err)
		mem, ok := c.(*InMemoryCountryCache)
		require.True(t, ok)
		assert.Equal(t, time.Minute, mem.ttl)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		f := NewCountryCacheFactory(unreachableRedis(), WithLogger(zaptest.NewLogger(t)))

		c, err := f.CreateCache()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryCountryCache{}, c)
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		f := NewCountryCacheFactory(unreachableRedis(), WithInMemoryFallback(false))

		c, err := f.CreateCache()
		assert.Error(t, err)
		assert.Nil(t, c)
		assert.Contains(t, err.Error(), "redis required")
	})
}

func TestRedisCountryCache_Keys(t *testing.T) {
	c := NewRedisCountryCacheWithClient(nil, "", 0)

	assert.Equal(t, "carrier:country:gen", c.genKey())
	assert.Equal(t, "carrier:country:v7:cz", c.countryKey(7, "cz"))
	assert.Equal(t, DefaultCountryTTL, c.ttl)
}
