package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerd/hammerd/internal/domain/auction"
)

// PostgresBidRepository implements auction.BidRepository using pgx
type PostgresBidRepository struct {
	pool *pgxpool.Pool // Keep pool for read-only operations
}

// NewPostgresBidRepository creates a new PostgreSQL bid repository
func NewPostgresBidRepository(pool *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{pool: pool}
}

// SaveBid saves a bid within a transaction
func (r *PostgresBidRepository) SaveBid(ctx context.Context, tx pgx.Tx, bid *auction.Bid) error {
	query := `
		INSERT INTO bids (id, lot_id, bidder_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.Exec(ctx, query,
		bid.ID,
		bid.LotID,
		bid.BidderID,
		bid.Amount,
		bid.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	return nil
}

// ListByLotID retrieves all bids for a lot in admission order
func (r *PostgresBidRepository) ListByLotID(ctx context.Context, lotID uuid.UUID) ([]*auction.Bid, error) {
	query := `
		SELECT id, lot_id, bidder_id, amount, created_at
		FROM bids
		WHERE lot_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()
	return scanBids(rows)
}

// ListByAuctionID retrieves all bids across an auction's lots in admission order
func (r *PostgresBidRepository) ListByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*auction.Bid, error) {
	query := `
		SELECT b.id, b.lot_id, b.bidder_id, b.amount, b.created_at
		FROM bids b
		JOIN lots l ON l.id = b.lot_id
		WHERE l.auction_id = $1
		ORDER BY b.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()
	return scanBids(rows)
}

func scanBids(rows pgx.Rows) ([]*auction.Bid, error) {
	var result []*auction.Bid
	for rows.Next() {
		var bid auction.Bid
		if err := rows.Scan(
			&bid.ID,
			&bid.LotID,
			&bid.BidderID,
			&bid.Amount,
			&bid.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		result = append(result, &bid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}
	return result, nil
}
