package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"

	"github.com/erp/carrier-sync/internal/infrastructure/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func requestCounts(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_server_request_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value(attribute.Key("http.route"))
				counts[route.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestHTTPMetrics_RecordsRoutePattern(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	engine := gin.New()
	engine.Use(HTTPMetricsWithMeter(provider.Meter("test"), zaptest.NewLogger(t)))
	engine.GET("/carriers/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/carriers/1", "/carriers/2", "/nowhere"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	counts := requestCounts(t, reader)
	assert.Equal(t, int64(2), counts["/carriers/:id"])
	assert.Equal(t, int64(1), counts["unmatched"])
	assert.NotContains(t, counts, "/carriers/1")
}

func TestHTTPMetrics_DisabledPassesThrough(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	for _, cfg := range []HTTPMetricsConfig{
		{Enabled: false, MeterProvider: mp},
		{Enabled: true, MeterProvider: nil},
		{Enabled: true, MeterProvider: mp},
	} {
		engine := gin.New()
		engine.Use(HTTPMetrics(cfg))
		engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}
