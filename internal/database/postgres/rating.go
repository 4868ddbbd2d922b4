package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// RatingRepository implements trade rating persistence for PostgreSQL
type RatingRepository struct {
	db *pgxpool.Pool
}

var _ repository.Rating = (*RatingRepository)(nil)

// NewRatingRepository creates a new RatingRepository
func NewRatingRepository(db *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{db: db}
}

const ratingColumns = `rating_id, trade_id, rater_id, ratee_id, overall_score, item_accuracy_score,
	shipping_speed_score, communication_score, public_comment, private_feedback, created_at`

func scanRating(row rowScanner) (*domain.TradeRating, error) {
	var (
		rating                   domain.TradeRating
		id, tradeID              uuid.UUID
		raterID, rateeID         uuid.UUID
		publicComment, privateFb pgtype.Text
	)
	err := row.Scan(&id, &tradeID, &raterID, &rateeID, &rating.OverallScore, &rating.ItemAccuracyScore,
		&rating.ShippingSpeedScore, &rating.CommunicationScore, &publicComment, &privateFb, &rating.CreatedAt)
	if err != nil {
		return nil, err
	}
	rating.ID = id.String()
	rating.TradeID = tradeID.String()
	rating.RaterID = raterID.String()
	rating.RateeID = rateeID.String()
	rating.PublicComment = textToStr(publicComment)
	rating.PrivateFeedback = textToStr(privateFb)
	return &rating, nil
}

// CreateRating inserts a rating; the unique constraint makes one-per-party
// hold under concurrent submission
func (r *RatingRepository) CreateRating(ctx context.Context, rating *domain.TradeRating) error {
	tradeID, err := parseID(rating.TradeID, "trade")
	if err != nil {
		return err
	}
	raterID, err := parseID(rating.RaterID, "user")
	if err != nil {
		return err
	}
	rateeID, err := parseID(rating.RateeID, "user")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO trade_ratings (trade_id, rater_id, ratee_id, overall_score, item_accuracy_score,
			shipping_speed_score, communication_score, public_comment, private_feedback)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING rating_id, created_at
	`
	var id uuid.UUID
	err = r.db.QueryRow(ctx, query, tradeID, raterID, rateeID, rating.OverallScore, rating.ItemAccuracyScore,
		rating.ShippingSpeedScore, rating.CommunicationScore, strToText(rating.PublicComment),
		strToText(rating.PrivateFeedback)).Scan(&id, &rating.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: trade %s rater %s", domain.ErrDuplicateRating, rating.TradeID, rating.RaterID)
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertRating, err)
	}
	rating.ID = id.String()
	return nil
}

// GetRating returns the rating a party left on a trade, or nil
func (r *RatingRepository) GetRating(ctx context.Context, tradeID, raterID string) (*domain.TradeRating, error) {
	tid, err := parseID(tradeID, "trade")
	if err != nil {
		return nil, err
	}
	rid, err := parseID(raterID, "user")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + ratingColumns + ` FROM trade_ratings WHERE trade_id = $1 AND rater_id = $2`
	rating, err := scanRating(r.db.QueryRow(ctx, query, tid, rid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetRating, err)
	}
	return rating, nil
}

// ListRatingsForTrade returns the ratings left on a trade
func (r *RatingRepository) ListRatingsForTrade(ctx context.Context, tradeID string) ([]*domain.TradeRating, error) {
	id, err := parseID(tradeID, "trade")
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + ratingColumns + ` FROM trade_ratings WHERE trade_id = $1 ORDER BY created_at`
	return r.listRatings(ctx, query, id)
}

// ListRatingsForUser returns the ratings a user received, newest first
func (r *RatingRepository) ListRatingsForUser(ctx context.Context, rateeID string) ([]*domain.TradeRating, error) {
	id, err := parseID(rateeID, "user")
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + ratingColumns + ` FROM trade_ratings WHERE ratee_id = $1 ORDER BY created_at DESC`
	return r.listRatings(ctx, query, id)
}

func (r *RatingRepository) listRatings(ctx context.Context, query string, args ...interface{}) ([]*domain.TradeRating, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListRatings, err)
	}
	defer rows.Close()

	var ratings []*domain.TradeRating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListRatings, err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}
