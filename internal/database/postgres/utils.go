package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/swapcrate/swapcrate/internal/logger"
)

// isUniqueViolation reports whether err is a unique constraint violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == PgErrorCodeUniqueViolation
}

// SafeRollback rolls back a transaction and logs any error that isn't ErrTxClosed
func SafeRollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.FromContext(ctx).Error("Failed to rollback transaction", "error", err)
	}
}

// parseID parses an entity ID string to uuid.UUID with a consistent error message
func parseID(id, label string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id: %w", label, err)
	}
	return u, nil
}

// parseIDs parses a batch of ID strings
func parseIDs(ids []string, label string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		u, err := parseID(id, label)
		if err != nil {
			return nil, err
		}
		out[i] = u
	}
	return out, nil
}

// marshalStrings encodes a string slice as JSONB, never null
func marshalStrings(ss []string) ([]byte, error) {
	if ss == nil {
		ss = []string{}
	}
	return json.Marshal(ss)
}

// unmarshalStrings decodes a JSONB string array
func unmarshalStrings(data []byte) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	var ss []string
	if err := json.Unmarshal(data, &ss); err != nil {
		return nil, fmt.Errorf("failed to unmarshal string array: %w", err)
	}
	if ss == nil {
		ss = []string{}
	}
	return ss, nil
}

// strToText converts a string to pgtype.Text, empty meaning NULL
func strToText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// textToStr converts a pgtype.Text to a string, NULL meaning empty
func textToStr(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// textToPtr converts a pgtype.Text to *string
func textToPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// uuidOrNull converts a UUID string to pgtype.UUID for nullable UUID columns,
// empty meaning NULL. Returns an error for non-empty values that are not
// valid UUIDs.
func uuidOrNull(id, label string) (pgtype.UUID, error) {
	if id == "" {
		return pgtype.UUID{Valid: false}, nil
	}
	u, err := parseID(id, label)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: u, Valid: true}, nil
}

// uuidPtrOrNull converts a *string UUID to pgtype.UUID
func uuidPtrOrNull(id *string, label string) (pgtype.UUID, error) {
	if id == nil {
		return pgtype.UUID{Valid: false}, nil
	}
	return uuidOrNull(*id, label)
}

// pgUUIDToPtr converts a nullable pgtype.UUID to *string
func pgUUIDToPtr(u pgtype.UUID) *string {
	if !u.Valid {
		return nil
	}
	s := uuid.UUID(u.Bytes).String()
	return &s
}

// pgUUIDToStr converts a nullable pgtype.UUID to a string, NULL meaning empty
func pgUUIDToStr(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// timeToTz converts a *time.Time to pgtype.Timestamptz
func timeToTz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

// tzToPtr converts a pgtype.Timestamptz to *time.Time
func tzToPtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	tt := t.Time
	return &tt
}

// marshalJSON encodes an optional document column, nil meaning NULL
func marshalJSON(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
