package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrTriggerStopped is returned when a manual run is requested during shutdown
	ErrTriggerStopped = errors.New("sync trigger is stopped")
)
