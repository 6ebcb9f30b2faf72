package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerd/hammerd/internal/domain/auction"
)

// PostgresEligibilityRepository implements auction.LotSource backed by the
// eligible_players table: the players who expressed interest in an auction,
// in the order the auctioneer wants them called.
type PostgresEligibilityRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEligibilityRepository creates a new PostgreSQL eligibility repository
func NewPostgresEligibilityRepository(pool *pgxpool.Pool) *PostgresEligibilityRepository {
	return &PostgresEligibilityRepository{pool: pool}
}

// ListEligibleLots retrieves the ordered eligibility list for an auction
func (r *PostgresEligibilityRepository) ListEligibleLots(ctx context.Context, auctionID uuid.UUID) ([]auction.EligibleLot, error) {
	query := `
		SELECT external_ref, base_price
		FROM eligible_players
		WHERE auction_id = $1
		ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible players: %w", err)
	}
	defer rows.Close()

	var result []auction.EligibleLot
	for rows.Next() {
		var el auction.EligibleLot
		if err := rows.Scan(&el.ExternalRef, &el.BasePrice); err != nil {
			return nil, fmt.Errorf("failed to scan eligible player: %w", err)
		}
		result = append(result, el)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating eligible players: %w", err)
	}
	return result, nil
}

// ReplaceEntries rewrites the eligibility list for an auction. Called from
// the registration boundary before the auction goes live.
func (r *PostgresEligibilityRepository) ReplaceEntries(ctx context.Context, auctionID uuid.UUID, entries []auction.EligibleLot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM eligible_players WHERE auction_id = $1`, auctionID); err != nil {
		return fmt.Errorf("failed to clear eligibility list: %w", err)
	}

	query := `
		INSERT INTO eligible_players (auction_id, position, external_ref, base_price)
		VALUES ($1, $2, $3, $4)
	`
	for i, el := range entries {
		if _, err := tx.Exec(ctx, query, auctionID, i, el.ExternalRef, el.BasePrice); err != nil {
			return fmt.Errorf("failed to insert eligible player: %w", err)
		}
	}

	return tx.Commit(ctx)
}
