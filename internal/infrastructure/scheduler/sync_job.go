package scheduler

import (
	"time"

	"github.com/google/uuid"

	appcarrier "github.com/erp/carrier-sync/internal/application/carrier"
)

// ---------------------------------------------------------------------------
// Sync Job Types
// ---------------------------------------------------------------------------

// SyncJobStatus represents the status of a sync job
type SyncJobStatus string

const (
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusSuccess SyncJobStatus = "SUCCESS"
	SyncJobStatusPartial SyncJobStatus = "PARTIAL"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
)

// SyncJobTrigger names what started a job
type SyncJobTrigger string

const (
	SyncJobTriggerStartup   SyncJobTrigger = "STARTUP"
	SyncJobTriggerScheduled SyncJobTrigger = "SCHEDULED"
	SyncJobTriggerManual    SyncJobTrigger = "MANUAL"
)

// SyncJob is one recorded synchronizer pass
type SyncJob struct {
	ID          uuid.UUID      `json:"id"`
	Trigger     SyncJobTrigger `json:"trigger"`
	Status      SyncJobStatus  `json:"status"`
	Reason      string         `json:"reason,omitempty"`
	Message     string         `json:"message,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`

	// Sync results
	FeedCount   int     `json:"feed_count"`
	Inserted    int     `json:"inserted"`
	Updated     int     `json:"updated"`
	FailedCount int     `json:"failed_count"`
	FailedIDs   []int64 `json:"failed_ids,omitempty"`
	SoftDeleted int64   `json:"soft_deleted"`
	SyncRunID   string  `json:"sync_run_id,omitempty"`

	Result *appcarrier.SyncResult `json:"-"`
}

// NewSyncJob creates a running job
func NewSyncJob(trigger SyncJobTrigger) *SyncJob {
	return &SyncJob{
		ID:        uuid.New(),
		Trigger:   trigger,
		Status:    SyncJobStatusRunning,
		StartedAt: time.Now(),
	}
}

// Complete records the synchronizer result on the job
func (j *SyncJob) Complete(result *appcarrier.SyncResult) {
	now := time.Now()
	j.CompletedAt = &now
	j.Result = result
	if result == nil {
		j.Status = SyncJobStatusFailed
		j.Error = "no result"
		return
	}

	j.SyncRunID = result.RunID.String()
	j.Message = result.Message()
	j.FeedCount = result.FeedCount
	j.Inserted = result.InsertedCount
	j.Updated = result.UpdatedCount
	j.FailedCount = result.FailedCount
	j.FailedIDs = result.FailedIDs
	j.SoftDeleted = result.DeletedCount

	switch {
	case !result.Completed():
		j.Status = SyncJobStatusFailed
		j.Reason = string(result.Reason)
		j.Error = result.Error()
	case result.HasFailures():
		j.Status = SyncJobStatusPartial
	default:
		j.Status = SyncJobStatusSuccess
	}
}

// Duration returns how long the job ran, or 0 while running
func (j *SyncJob) Duration() time.Duration {
	if j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(j.StartedAt)
}
