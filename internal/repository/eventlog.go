package repository

import "context"

// EventLog defines the interface for audit event persistence
type EventLog interface {
	LogEvent(ctx context.Context, eventType string, userID *string, payload interface{}, metadata interface{}) error
	CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error)
}
