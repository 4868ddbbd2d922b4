package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swapcrate/swapcrate/internal/repository"
)

type eventLogRepository struct {
	db *pgxpool.Pool
}

var _ repository.EventLog = (*eventLogRepository)(nil)

// NewEventLogRepository creates a new PostgreSQL event log repository
func NewEventLogRepository(db *pgxpool.Pool) repository.EventLog {
	return &eventLogRepository{db: db}
}

// LogEvent stores an audit event
func (r *eventLogRepository) LogEvent(ctx context.Context, eventType string, userID *string, payload interface{}, metadata interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	var metadataJSON []byte
	if metadata != nil {
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal event metadata: %w", err)
		}
	}

	uid, err := uuidPtrOrNull(userID, "user")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO events (event_type, user_id, payload, metadata)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, eventType, uid, payloadJSON, metadataJSON); err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	return nil
}

// CleanupOldEvents deletes events older than the retention window and returns
// the number of rows removed
func (r *eventLogRepository) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	query := `DELETE FROM events WHERE created_at < NOW() - make_interval(days => $1)`
	tag, err := r.db.Exec(ctx, query, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old events: %w", err)
	}
	return tag.RowsAffected(), nil
}
