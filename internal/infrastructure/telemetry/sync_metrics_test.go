package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// sumValue returns the summed int64 data points of a counter, filtered by an optional attribute value.
func sumValue(rm metricdata.ResourceMetrics, name, attrKey, attrValue string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				return 0, false
			}
			var total int64
			for _, dp := range sum.DataPoints {
				if attrKey != "" {
					v, found := dp.Attributes.Value(attributeKey(attrKey))
					if !found || v.AsString() != attrValue {
						continue
					}
				}
				total += dp.Value
			}
			return total, true
		}
	}
	return 0, false
}

func findMetric(rm metricdata.ResourceMetrics, name string) bool {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}

func TestNewSyncMetrics(t *testing.T) {
	t.Run("creates metrics with noop meter", func(t *testing.T) {
		sm, err := NewSyncMetrics(SyncMetricsConfig{Meter: noop.NewMeterProvider().Meter("test")})
		require.NoError(t, err)
		require.NotNil(t, sm)
		assert.NotNil(t, sm.logger)
	})

	t.Run("nil meter", func(t *testing.T) {
		sm, err := NewSyncMetrics(SyncMetricsConfig{Logger: zap.NewNop()})
		require.Error(t, err)
		assert.Nil(t, sm)
		assert.Equal(t, "NewSyncMetrics: meter cannot be nil", err.Error())
	})
}

func TestSyncMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	sm, err := NewSyncMetrics(SyncMetricsConfig{Meter: provider.Meter("test"), Logger: zap.NewNop()})
	require.NoError(t, err)

	ctx := context.Background()
	sm.RecordRun(ctx, "COMPLETED", "", 2*time.Second)
	sm.RecordRun(ctx, "ABORTED", "TRANSPORT", 100*time.Millisecond)
	sm.RecordRecords(ctx, 10, 3, 6, 1, 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	runs, ok := sumValue(rm, "carrier_sync_runs_total", "", "")
	require.True(t, ok)
	assert.Equal(t, int64(2), runs)

	aborted, _ := sumValue(rm, "carrier_sync_runs_total", "sync.status", "ABORTED")
	assert.Equal(t, int64(1), aborted)

	inserted, _ := sumValue(rm, "carrier_sync_records_total", "record.op", "insert")
	updated, _ := sumValue(rm, "carrier_sync_records_total", "record.op", "update")
	failed, _ := sumValue(rm, "carrier_sync_records_total", "record.op", "failed")
	assert.Equal(t, int64(3), inserted)
	assert.Equal(t, int64(6), updated)
	assert.Equal(t, int64(1), failed)

	deleted, _ := sumValue(rm, "carrier_sync_soft_deleted_total", "", "")
	assert.Equal(t, int64(2), deleted)

	assert.True(t, findMetric(rm, "carrier_sync_duration_seconds"))
	assert.True(t, findMetric(rm, "carrier_sync_feed_size"))
}
