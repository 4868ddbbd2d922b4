package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// DisputeRepository implements dispute ticket persistence for PostgreSQL
type DisputeRepository struct {
	db *pgxpool.Pool
}

var _ repository.Dispute = (*DisputeRepository)(nil)

// NewDisputeRepository creates a new DisputeRepository
func NewDisputeRepository(db *pgxpool.Pool) *DisputeRepository {
	return &DisputeRepository{db: db}
}

const ticketColumns = `ticket_id, trade_id, initiator_id, respondent_id, status, dispute_type,
	initiator_evidence, respondent_evidence, mediation_log, resolution,
	deadline_for_next_action, created_at, updated_at`

func scanTicket(row rowScanner) (*domain.DisputeTicket, error) {
	var (
		ticket                               domain.DisputeTicket
		id, tradeID, initiatorID, respondent uuid.UUID
		status, disputeType                  string
		initiatorEv, respondentEv            []byte
		mediationLog, resolution             []byte
	)
	err := row.Scan(&id, &tradeID, &initiatorID, &respondent, &status, &disputeType,
		&initiatorEv, &respondentEv, &mediationLog, &resolution,
		&ticket.DeadlineForNextAction, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		return nil, err
	}

	ticket.ID = id.String()
	ticket.TradeID = tradeID.String()
	ticket.InitiatorID = initiatorID.String()
	ticket.RespondentID = respondent.String()
	ticket.Status = domain.DisputeStatus(status)
	ticket.Type = domain.DisputeType(disputeType)

	if len(initiatorEv) > 0 {
		ticket.InitiatorEvidence = &domain.Evidence{}
		if err := json.Unmarshal(initiatorEv, ticket.InitiatorEvidence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal initiator evidence: %w", err)
		}
	}
	if len(respondentEv) > 0 {
		ticket.RespondentEvidence = &domain.Evidence{}
		if err := json.Unmarshal(respondentEv, ticket.RespondentEvidence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal respondent evidence: %w", err)
		}
	}
	if len(mediationLog) > 0 {
		if err := json.Unmarshal(mediationLog, &ticket.MediationLog); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mediation log: %w", err)
		}
	}
	if len(resolution) > 0 {
		ticket.Resolution = &domain.DisputeResolution{}
		if err := json.Unmarshal(resolution, ticket.Resolution); err != nil {
			return nil, fmt.Errorf("failed to unmarshal resolution: %w", err)
		}
	}
	return &ticket, nil
}

// ticketWriteArgs builds the argument list shared by insert and update
func ticketWriteArgs(ticket *domain.DisputeTicket) ([]interface{}, error) {
	tradeID, err := parseID(ticket.TradeID, "trade")
	if err != nil {
		return nil, err
	}
	initiatorID, err := parseID(ticket.InitiatorID, "user")
	if err != nil {
		return nil, err
	}
	respondentID, err := parseID(ticket.RespondentID, "user")
	if err != nil {
		return nil, err
	}

	var initiatorEv, respondentEv, resolution []byte
	if ticket.InitiatorEvidence != nil {
		if initiatorEv, err = json.Marshal(ticket.InitiatorEvidence); err != nil {
			return nil, err
		}
	}
	if ticket.RespondentEvidence != nil {
		if respondentEv, err = json.Marshal(ticket.RespondentEvidence); err != nil {
			return nil, err
		}
	}
	if ticket.Resolution != nil {
		if resolution, err = json.Marshal(ticket.Resolution); err != nil {
			return nil, err
		}
	}
	mediationLog := ticket.MediationLog
	if mediationLog == nil {
		mediationLog = []domain.MediationMessage{}
	}
	mediationJSON, err := json.Marshal(mediationLog)
	if err != nil {
		return nil, err
	}

	return []interface{}{
		tradeID, initiatorID, respondentID, string(ticket.Status), string(ticket.Type),
		initiatorEv, respondentEv, mediationJSON, resolution,
		ticket.DeadlineForNextAction,
	}, nil
}

// CreateTicket inserts a new dispute ticket
func (r *DisputeRepository) CreateTicket(ctx context.Context, ticket *domain.DisputeTicket) error {
	args, err := ticketWriteArgs(ticket)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertTicket, err)
	}

	query := `
		INSERT INTO dispute_tickets (trade_id, initiator_id, respondent_id, status, dispute_type,
			initiator_evidence, respondent_evidence, mediation_log, resolution, deadline_for_next_action)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ticket_id, created_at, updated_at
	`
	var id uuid.UUID
	err = r.db.QueryRow(ctx, query, args...).Scan(&id, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: trade %s", domain.ErrDisputeAlreadyOpen, ticket.TradeID)
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertTicket, err)
	}
	ticket.ID = id.String()
	return nil
}

// GetTicket returns a dispute ticket by id, or nil if not found
func (r *DisputeRepository) GetTicket(ctx context.Context, ticketID string) (*domain.DisputeTicket, error) {
	id, err := parseID(ticketID, "ticket")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + ticketColumns + ` FROM dispute_tickets WHERE ticket_id = $1`
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetTicket, err)
	}
	return ticket, nil
}

// UpdateTicket persists ticket fields
func (r *DisputeRepository) UpdateTicket(ctx context.Context, ticket *domain.DisputeTicket) error {
	id, err := parseID(ticket.ID, "ticket")
	if err != nil {
		return err
	}
	args, err := ticketWriteArgs(ticket)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateTicket, err)
	}
	args = append(args, id)

	query := `
		UPDATE dispute_tickets
		SET trade_id = $1, initiator_id = $2, respondent_id = $3, status = $4, dispute_type = $5,
		    initiator_evidence = $6, respondent_evidence = $7, mediation_log = $8, resolution = $9,
		    deadline_for_next_action = $10, updated_at = NOW()
		WHERE ticket_id = $11
	`
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateTicket, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDisputeNotFound, ticket.ID)
	}
	return nil
}

// GetOpenTicketByTradeID returns the open ticket for a trade, or nil
func (r *DisputeRepository) GetOpenTicketByTradeID(ctx context.Context, tradeID string) (*domain.DisputeTicket, error) {
	id, err := parseID(tradeID, "trade")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + ticketColumns + ` FROM dispute_tickets
		WHERE trade_id = $1 AND status != ALL($2)`
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id, closedStatuses()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetTicket, err)
	}
	return ticket, nil
}

// ListTicketsPastDeadline returns open tickets whose deadline elapsed
func (r *DisputeRepository) ListTicketsPastDeadline(ctx context.Context, now time.Time) ([]*domain.DisputeTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM dispute_tickets
		WHERE status != ALL($1) AND deadline_for_next_action <= $2`
	rows, err := r.db.Query(ctx, query, closedStatuses(), now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListTickets, err)
	}
	defer rows.Close()

	var tickets []*domain.DisputeTicket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListTickets, err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func closedStatuses() []string {
	return []string{
		string(domain.DisputeStatusResolved),
		string(domain.DisputeStatusClosedAutomatically),
	}
}
