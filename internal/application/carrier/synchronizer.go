// Package carrier holds the application services that keep the local carrier
// catalog in step with the provider feed and answer catalog queries.
package carrier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/carrier-sync/internal/domain/carrier"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Fetcher retrieves the raw provider feed.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// PayloadParser turns a raw feed body into carrier records.
type PayloadParser interface {
	Parse(raw []byte) ([]carrier.Carrier, error)
}

// SyncRecorder receives the outcome of every pass.
type SyncRecorder interface {
	RecordRun(ctx context.Context, status, reason string, d time.Duration)
	RecordRecords(ctx context.Context, feed, inserted, updated, failed, softDeleted int)
}

// SyncStatus is the terminal state of a pass.
type SyncStatus string

const (
	SyncStatusCompleted SyncStatus = "COMPLETED"
	SyncStatusAborted   SyncStatus = "ABORTED"
)

// AbortReason names why a pass left the store untouched.
type AbortReason string

const (
	ReasonNone              AbortReason = ""
	ReasonTransport         AbortReason = "TRANSPORT"
	ReasonMalformedDocument AbortReason = "MALFORMED_DOCUMENT"
	ReasonMissingList       AbortReason = "MISSING_CARRIER_LIST"
	ReasonValidation        AbortReason = "VALIDATION_FAILURE"
	ReasonStore             AbortReason = "STORE"
	ReasonInternal          AbortReason = "INTERNAL"
)

// reasonText is the user-facing cause shown in the failure message.
var reasonText = map[AbortReason]string{
	ReasonTransport:         "Failed to get the list.",
	ReasonMalformedDocument: "Malformed API response.",
	ReasonMissingList:       "Invalid API response.",
	ReasonValidation:        "Invalid API response.",
	ReasonStore:             "Failed to save the list.",
	ReasonInternal:          "Unexpected error.",
}

// SyncResult describes one pass of the synchronizer.
type SyncResult struct {
	RunID         uuid.UUID   `json:"run_id"`
	Status        SyncStatus  `json:"status"`
	Reason        AbortReason `json:"reason,omitempty"`
	Err           error       `json:"-"`
	FeedCount     int         `json:"feed_count"`
	InsertedCount int         `json:"inserted_count"`
	UpdatedCount  int         `json:"updated_count"`
	FailedCount   int         `json:"failed_count"`
	FailedIDs     []int64     `json:"failed_ids,omitempty"`
	DeletedCount  int64       `json:"deleted_count"`
	StartedAt     time.Time   `json:"started_at"`
	CompletedAt   time.Time   `json:"completed_at"`
}

// Completed reports whether the pass committed.
func (r *SyncResult) Completed() bool {
	return r.Status == SyncStatusCompleted
}

// HasFailures reports whether some records could not be written.
func (r *SyncResult) HasFailures() bool {
	return r.FailedCount > 0
}

// Duration returns how long the pass took.
func (r *SyncResult) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Message returns the human-visible outcome of the pass.
func (r *SyncResult) Message() string {
	if r.Completed() {
		return "Carriers were updated."
	}
	text, ok := reasonText[r.Reason]
	if !ok {
		text = reasonText[ReasonInternal]
	}
	return fmt.Sprintf("Carrier download failed: %s Please try again later.", text)
}

// Error returns the abort cause as text, or "" for completed passes.
func (r *SyncResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// ReasonFor classifies a fetch, parse or store error.
func ReasonFor(err error) AbortReason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, carrier.ErrTransportFailure):
		return ReasonTransport
	case errors.Is(err, carrier.ErrMalformedDocument):
		return ReasonMalformedDocument
	case errors.Is(err, carrier.ErrMissingCarrierList):
		return ReasonMissingList
	case errors.Is(err, carrier.ErrValidationFailure):
		return ReasonValidation
	default:
		return ReasonStore
	}
}

// fetchReason classifies a fetch error. Anything the fetcher does not mark
// otherwise happened while retrieving the feed.
func fetchReason(err error) AbortReason {
	reason := ReasonFor(err)
	if reason == ReasonStore {
		return ReasonTransport
	}
	return reason
}

// ---------------------------------------------------------------------------
// Synchronizer
// ---------------------------------------------------------------------------

// SynchronizerOption configures a Synchronizer.
type SynchronizerOption func(*Synchronizer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) SynchronizerOption {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the recorder for pass outcomes.
func WithMetrics(recorder SyncRecorder) SynchronizerOption {
	return func(s *Synchronizer) {
		s.metrics = recorder
	}
}

// WithTracer sets the tracer used for pass spans.
func WithTracer(tracer trace.Tracer) SynchronizerOption {
	return func(s *Synchronizer) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithOnCompleted registers a hook called after every committed pass.
func WithOnCompleted(fn func(ctx context.Context, result *SyncResult)) SynchronizerOption {
	return func(s *Synchronizer) {
		s.onCompleted = fn
	}
}

// Synchronizer downloads the provider feed and reconciles the catalog with it.
// A pass either commits the whole diff or leaves the store untouched.
type Synchronizer struct {
	fetcher     Fetcher
	parser      PayloadParser
	repo        carrier.Repository
	logger      *zap.Logger
	metrics     SyncRecorder
	tracer      trace.Tracer
	onCompleted func(ctx context.Context, result *SyncResult)

	// mu serializes passes within this process
	mu sync.Mutex
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(fetcher Fetcher, parser PayloadParser, repo carrier.Repository, opts ...SynchronizerOption) *Synchronizer {
	s := &Synchronizer{
		fetcher: fetcher,
		parser:  parser,
		repo:    repo,
		logger:  zap.NewNop(),
		tracer:  noop.NewTracerProvider().Tracer("carrier-sync"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one pass. It never returns an error; the outcome is in the result.
func (s *Synchronizer) Run(ctx context.Context) (result *SyncResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result = &SyncResult{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}
	log := s.logger.With(zap.String("run_id", result.RunID.String()))

	ctx, span := s.tracer.Start(ctx, "carrier.sync",
		trace.WithAttributes(attribute.String("sync.run_id", result.RunID.String())))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Carrier sync panicked", zap.Any("panic", r), zap.Stack("stack"))
			s.abort(result, ReasonInternal, fmt.Errorf("panic: %v", r))
		}
		s.finish(ctx, span, log, result)
	}()

	// A caller that gave up while an earlier pass held the lock gets no fetch.
	if err := ctx.Err(); err != nil {
		s.abort(result, ReasonTransport, fmt.Errorf("%w: %w", carrier.ErrTransportFailure, err))
		return result
	}

	log.Info("Starting carrier sync")

	raw, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.abort(result, fetchReason(err), err)
		return result
	}
	span.AddEvent("feed.fetched", trace.WithAttributes(attribute.Int("feed.bytes", len(raw))))

	carriers, err := s.parser.Parse(raw)
	if err != nil && carrier.IsParseFailure(err) {
		span.AddEvent("feed.unparsable")
		log.Warn("Carrier feed could not be parsed", zap.Int("feed_bytes", len(raw)), zap.Error(err))
	}
	if err == nil {
		err = carrier.ValidateBatch(carriers)
	}
	if err != nil {
		s.abort(result, ReasonFor(err), err)
		return result
	}
	result.FeedCount = len(carriers)

	if err := s.apply(ctx, log, carriers, result); err != nil {
		s.abort(result, ReasonStore, err)
		return result
	}

	result.Status = SyncStatusCompleted
	return result
}

// apply writes the diff inside one store transaction. Counters land on the
// result only after commit.
func (s *Synchronizer) apply(ctx context.Context, log *zap.Logger, carriers []carrier.Carrier, result *SyncResult) error {
	var (
		inserted, updated int
		failedIDs         []int64
		deleted           int64
	)

	err := s.repo.Transaction(ctx, func(tx carrier.Repository) error {
		inserted, updated, failedIDs, deleted = 0, 0, nil, 0

		existing, err := tx.AllIDs(ctx)
		if err != nil {
			return fmt.Errorf("read stored ids: %w", err)
		}
		known := make(map[int64]struct{}, len(existing))
		for _, id := range existing {
			known[id] = struct{}{}
		}

		for i := range carriers {
			c := &carriers[i]
			c.Deleted = false

			if _, ok := known[c.ID]; ok {
				err = tx.Update(ctx, c, c.ID)
				if err == nil {
					updated++
				}
			} else {
				err = tx.Insert(ctx, c)
				if err == nil {
					inserted++
				}
			}
			if err != nil {
				failedIDs = append(failedIDs, c.ID)
				log.Warn("Failed to write carrier",
					zap.Int64("carrier_id", c.ID),
					zap.Error(err),
				)
			}
		}

		// Failed writes stay in the keep set so a transient error never
		// hides a carrier that the feed still lists.
		deleted, err = tx.MarkDeletedExcept(ctx, carrier.IDSet(carriers))
		if err != nil {
			return fmt.Errorf("mark absent carriers deleted: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	result.InsertedCount = inserted
	result.UpdatedCount = updated
	result.FailedCount = len(failedIDs)
	result.FailedIDs = failedIDs
	result.DeletedCount = deleted
	return nil
}

func (s *Synchronizer) abort(result *SyncResult, reason AbortReason, err error) {
	result.Status = SyncStatusAborted
	result.Reason = reason
	result.Err = err
	result.InsertedCount = 0
	result.UpdatedCount = 0
	result.FailedCount = 0
	result.FailedIDs = nil
	result.DeletedCount = 0
}

func (s *Synchronizer) finish(ctx context.Context, span trace.Span, log *zap.Logger, result *SyncResult) {
	result.CompletedAt = time.Now()

	span.SetAttributes(
		attribute.String("sync.status", string(result.Status)),
		attribute.Int("sync.feed_count", result.FeedCount),
		attribute.Int("sync.inserted", result.InsertedCount),
		attribute.Int("sync.updated", result.UpdatedCount),
		attribute.Int("sync.failed", result.FailedCount),
		attribute.Int64("sync.soft_deleted", result.DeletedCount),
	)

	if result.Completed() {
		span.SetStatus(codes.Ok, "")
		log.Info("Carrier sync completed",
			zap.Int("feed_count", result.FeedCount),
			zap.Int("inserted", result.InsertedCount),
			zap.Int("updated", result.UpdatedCount),
			zap.Int("failed", result.FailedCount),
			zap.Int64("soft_deleted", result.DeletedCount),
			zap.Duration("duration", result.Duration()),
		)
	} else {
		span.SetAttributes(attribute.String("sync.reason", string(result.Reason)))
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, string(result.Reason))
		log.Error("Carrier sync aborted",
			zap.String("reason", string(result.Reason)),
			zap.Error(result.Err),
			zap.Duration("duration", result.Duration()),
		)
	}
	span.End()

	if s.metrics != nil {
		s.guard(log, "metrics", func() {
			s.metrics.RecordRun(ctx, string(result.Status), string(result.Reason), result.Duration())
			if result.Completed() {
				s.metrics.RecordRecords(ctx, result.FeedCount, result.InsertedCount,
					result.UpdatedCount, result.FailedCount, int(result.DeletedCount))
			}
		})
	}

	if result.Completed() && s.onCompleted != nil {
		s.guard(log, "on_completed", func() { s.onCompleted(ctx, result) })
	}
}

// guard runs a post-pass callback. A panic is logged and leaves the result as is.
func (s *Synchronizer) guard(log *zap.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Carrier sync callback panicked",
				zap.String("callback", name),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	fn()
}
