package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerd/hammerd/internal/domain/auction"
)

// PostgresBidderRepository implements auction.BidderRepository using pgx
type PostgresBidderRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBidderRepository creates a new PostgreSQL bidder repository
func NewPostgresBidderRepository(pool *pgxpool.Pool) *PostgresBidderRepository {
	return &PostgresBidderRepository{pool: pool}
}

// CreateBidder registers a bidder within a transaction
func (r *PostgresBidderRepository) CreateBidder(ctx context.Context, tx pgx.Tx, b *auction.Bidder) error {
	query := `
		INSERT INTO bidders (id, auction_id, user_id, name, budget, spent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		b.ID,
		b.AuctionID,
		b.UserID,
		b.Name,
		b.Budget,
		b.Spent,
		b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bidder: %w", err)
	}
	return nil
}

// UpdateSpent writes a bidder's new spent total within a transaction.
// The table's CHECK (spent <= budget) backs the ledger invariant at the
// durability layer too.
func (r *PostgresBidderRepository) UpdateSpent(ctx context.Context, tx pgx.Tx, bidderID uuid.UUID, spent int64) error {
	query := `
		UPDATE bidders
		SET spent = $1
		WHERE id = $2
	`
	result, err := tx.Exec(ctx, query, spent, bidderID)
	if err != nil {
		return fmt.Errorf("failed to update bidder spent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return auction.ErrBidderNotFound
	}
	return nil
}

// ListByAuctionID retrieves all bidders for an auction
func (r *PostgresBidderRepository) ListByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*auction.Bidder, error) {
	query := `
		SELECT id, auction_id, user_id, name, budget, spent, created_at
		FROM bidders
		WHERE auction_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bidders: %w", err)
	}
	defer rows.Close()

	var result []*auction.Bidder
	for rows.Next() {
		var b auction.Bidder
		if err := rows.Scan(
			&b.ID,
			&b.AuctionID,
			&b.UserID,
			&b.Name,
			&b.Budget,
			&b.Spent,
			&b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bidder: %w", err)
		}
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bidders: %w", err)
	}
	return result, nil
}
