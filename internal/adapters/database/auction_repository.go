package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerd/hammerd/internal/domain/auction"
)

// PostgresAuctionRepository implements auction.AuctionRepository using pgx
type PostgresAuctionRepository struct {
	pool *pgxpool.Pool // Keep pool for non-transactional reads
}

// NewPostgresAuctionRepository creates a new PostgreSQL auction repository
func NewPostgresAuctionRepository(pool *pgxpool.Pool) *PostgresAuctionRepository {
	return &PostgresAuctionRepository{pool: pool}
}

// CreateAuction creates a new auction within a transaction
func (r *PostgresAuctionRepository) CreateAuction(ctx context.Context, tx pgx.Tx, a *auction.Auction) error {
	query := `
		INSERT INTO auctions (id, auctioneer_id, status, budget_per_bidder, bid_increment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		a.ID,
		a.AuctioneerID,
		a.Status,
		a.BudgetPerBidder,
		a.BidIncrement,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auction: %w", err)
	}
	return nil
}

// UpdateStatus updates the auction's lifecycle status within a transaction
func (r *PostgresAuctionRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, status auction.Status) error {
	query := `
		UPDATE auctions
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := tx.Exec(ctx, query, status, auctionID)
	if err != nil {
		return fmt.Errorf("failed to update auction status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return auction.ErrAuctionNotFound
	}
	return nil
}

// GetAuctionByID retrieves an auction by its ID
func (r *PostgresAuctionRepository) GetAuctionByID(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	query := `
		SELECT id, auctioneer_id, status, budget_per_bidder, bid_increment, created_at, updated_at
		FROM auctions
		WHERE id = $1
	`
	var a auction.Auction
	err := r.pool.QueryRow(ctx, query, auctionID).Scan(
		&a.ID,
		&a.AuctioneerID,
		&a.Status,
		&a.BudgetPerBidder,
		&a.BidIncrement,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auction.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return &a, nil
}
