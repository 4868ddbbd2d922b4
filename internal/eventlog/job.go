package eventlog

import (
	"context"
	"fmt"

	"github.com/swapcrate/swapcrate/internal/logger"
)

// CleanupJob prunes audit events past the retention window. Scheduled through
// the worker pool.
type CleanupJob struct {
	svc           Service
	retentionDays int
}

// NewCleanupJob creates a cleanup job with the given retention
func NewCleanupJob(svc Service, retentionDays int) *CleanupJob {
	return &CleanupJob{svc: svc, retentionDays: retentionDays}
}

// Process removes events older than the retention period
func (j *CleanupJob) Process(ctx context.Context) error {
	removed, err := j.svc.CleanupOldEvents(ctx, j.retentionDays)
	if err != nil {
		return fmt.Errorf("event log cleanup: %w", err)
	}
	if removed > 0 {
		logger.FromContext(ctx).Info("Event log cleanup completed", "removed", removed, "retention_days", j.retentionDays)
	}
	return nil
}
