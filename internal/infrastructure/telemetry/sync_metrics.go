package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics records carrier catalog sync outcomes.
type SyncMetrics struct {
	logger *zap.Logger

	runsTotal        *Counter
	recordsTotal     *Counter
	softDeletedTotal *Counter
	runDuration      *Histogram
	feedSize         *Gauge
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewSyncMetrics creates the sync instruments on the given meter.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{logger: logger}

	var err error
	sm.runsTotal, err = NewCounter(cfg.Meter,
		"carrier_sync_runs_total",
		"Total number of carrier catalog sync passes by outcome",
		"{run}",
	)
	if err != nil {
		return nil, err
	}

	sm.recordsTotal, err = NewCounter(cfg.Meter,
		"carrier_sync_records_total",
		"Carrier records written during sync passes by operation",
		"{record}",
	)
	if err != nil {
		return nil, err
	}

	sm.softDeletedTotal, err = NewCounter(cfg.Meter,
		"carrier_sync_soft_deleted_total",
		"Carriers marked deleted because they left the feed",
		"{record}",
	)
	if err != nil {
		return nil, err
	}

	sm.runDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "carrier_sync_duration_seconds",
		Description: "Duration of a carrier catalog sync pass",
		Unit:        "s",
		Boundaries:  SyncDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.feedSize, err = NewGauge(cfg.Meter,
		"carrier_sync_feed_size",
		"Number of carriers in the last accepted feed",
		"{record}",
	)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordRun records one pass with its final status and abort reason (empty when completed).
func (sm *SyncMetrics) RecordRun(ctx context.Context, status, reason string, d time.Duration) {
	attrs := AttrSyncStatus.String(status)
	sm.runsTotal.Inc(ctx, attrs, AttrSyncReason.String(reason))
	sm.runDuration.RecordDuration(ctx, d, attrs)
}

// RecordRecords records the per-record counters of a pass that reached the store.
func (sm *SyncMetrics) RecordRecords(ctx context.Context, feed, inserted, updated, failed, softDeleted int) {
	sm.feedSize.Record(ctx, int64(feed))
	sm.recordsTotal.Add(ctx, int64(inserted), AttrRecordOp.String("insert"))
	sm.recordsTotal.Add(ctx, int64(updated), AttrRecordOp.String("update"))
	sm.recordsTotal.Add(ctx, int64(failed), AttrRecordOp.String("failed"))
	sm.softDeletedTotal.Add(ctx, int64(softDeleted))

	if failed > 0 {
		sm.logger.Debug("Sync pass had record failures", zap.Int("failed", failed))
	}
}

// ErrMeterNil is returned when metrics are created without a meter.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
