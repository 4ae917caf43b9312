package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	appcarrier "github.com/erp/carrier-sync/internal/application/carrier"
	"github.com/erp/carrier-sync/internal/infrastructure/logger"
)

// Runner performs one synchronizer pass
type Runner interface {
	Run(ctx context.Context) *appcarrier.SyncResult
}

// ---------------------------------------------------------------------------
// SyncTriggerConfig
// ---------------------------------------------------------------------------

// SyncTriggerConfig holds configuration for the sync trigger
type SyncTriggerConfig struct {
	// Interval between scheduled passes
	Interval time.Duration
	// JobTimeout bounds a single pass, including the feed download
	JobTimeout time.Duration
	// RunOnStart runs one pass as soon as the trigger starts
	RunOnStart bool
	// HistorySize is the number of jobs kept in memory
	HistorySize int
}

// DefaultSyncTriggerConfig returns default configuration
func DefaultSyncTriggerConfig() SyncTriggerConfig {
	return SyncTriggerConfig{
		Interval:    24 * time.Hour,
		JobTimeout:  2 * time.Minute,
		RunOnStart:  false,
		HistorySize: 100,
	}
}

// Validate validates the configuration
func (c *SyncTriggerConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("%w: history size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncTrigger
// ---------------------------------------------------------------------------

// SyncTrigger runs the synchronizer on a fixed interval and on demand.
// Nothing is persisted between passes; the history lives in memory only.
type SyncTrigger struct {
	config SyncTriggerConfig
	runner Runner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	stopped   bool

	historyMu sync.RWMutex
	history   []*SyncJob
}

// NewSyncTrigger creates a new sync trigger
func NewSyncTrigger(config SyncTriggerConfig, runner Runner, logger *zap.Logger) (*SyncTrigger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SyncTrigger{
		config:  config,
		runner:  runner,
		logger:  logger,
		history: make([]*SyncJob, 0, config.HistorySize),
	}, nil
}

// Start starts the ticker loop
func (t *SyncTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.stopped = false

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.wg.Add(1)
	t.mu.Unlock()

	go t.runLoop(ctx)

	t.logger.Info("Carrier sync trigger started",
		zap.Duration("interval", t.config.Interval),
		zap.Duration("job_timeout", t.config.JobTimeout),
		zap.Bool("run_on_start", t.config.RunOnStart),
	)

	return nil
}

// Stop stops the ticker loop and waits for a running pass to finish
func (t *SyncTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.stopped = true
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Carrier sync trigger stopped")
		return nil
	case <-ctx.Done():
		t.logger.Warn("Carrier sync trigger stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the ticker loop is active
func (t *SyncTrigger) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isRunning
}

// runLoop runs a pass on every tick
func (t *SyncTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	if t.config.RunOnStart {
		t.execute(ctx, SyncJobTriggerStartup)
	}

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.execute(ctx, SyncJobTriggerScheduled)
		}
	}
}

// TriggerNow runs one pass synchronously and returns the recorded job.
// The pass is bounded by both ctx and the job timeout.
func (t *SyncTrigger) TriggerNow(ctx context.Context) (*SyncJob, error) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil, ErrTriggerStopped
	}
	t.wg.Add(1)
	t.mu.Unlock()
	defer t.wg.Done()

	return t.execute(ctx, SyncJobTriggerManual), nil
}

// execute runs one pass with the job timeout and records it
func (t *SyncTrigger) execute(ctx context.Context, trigger SyncJobTrigger) *SyncJob {
	job := NewSyncJob(trigger)
	jobCtx := logger.WithJobID(ctx, job.ID.String())
	log := logger.WithTraceContext(jobCtx, t.logger.With(zap.String("trigger", string(trigger))))
	log.Info("Running carrier sync job")

	jobCtx, cancel := context.WithTimeout(jobCtx, t.config.JobTimeout)
	defer cancel()

	job.Complete(t.runner.Run(jobCtx))

	fields := []zap.Field{
		zap.String("status", string(job.Status)),
		zap.Int("inserted", job.Inserted),
		zap.Int("updated", job.Updated),
		zap.Int("failed", job.FailedCount),
		zap.Int64("soft_deleted", job.SoftDeleted),
		zap.Duration("duration", job.Duration()),
	}
	if job.Status == SyncJobStatusFailed {
		log.Warn("Carrier sync job failed", append(fields, zap.String("reason", job.Reason), zap.String("error", job.Error))...)
	} else {
		log.Info("Carrier sync job completed", fields...)
	}

	t.addToHistory(job)
	return job
}

// addToHistory adds a finished job to the front of the history
func (t *SyncTrigger) addToHistory(job *SyncJob) {
	t.historyMu.Lock()
	defer t.historyMu.Unlock()

	t.history = append([]*SyncJob{job}, t.history...)
	if len(t.history) > t.config.HistorySize {
		t.history = t.history[:t.config.HistorySize]
	}
}

// History returns up to limit recent jobs, newest first. limit <= 0 returns all.
func (t *SyncTrigger) History(limit int) []*SyncJob {
	t.historyMu.RLock()
	defer t.historyMu.RUnlock()

	if limit <= 0 || limit > len(t.history) {
		limit = len(t.history)
	}

	result := make([]*SyncJob, limit)
	copy(result, t.history[:limit])
	return result
}
