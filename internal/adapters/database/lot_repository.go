package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerd/hammerd/internal/domain/auction"
)

// PostgresLotRepository implements auction.LotRepository using pgx
type PostgresLotRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresLotRepository creates a new PostgreSQL lot repository
func NewPostgresLotRepository(pool *pgxpool.Pool) *PostgresLotRepository {
	return &PostgresLotRepository{pool: pool}
}

// InsertLots inserts the seeded lot pool within a transaction
func (r *PostgresLotRepository) InsertLots(ctx context.Context, tx pgx.Tx, lots []*auction.Lot) error {
	query := `
		INSERT INTO lots (id, auction_id, external_ref, base_price, order_index, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, l := range lots {
		_, err := tx.Exec(ctx, query,
			l.ID,
			l.AuctionID,
			l.ExternalRef,
			l.BasePrice,
			l.OrderIndex,
			l.Status,
			l.CreatedAt,
			l.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert lot %s: %w", l.ID, err)
		}
	}
	return nil
}

// UpdateStatus updates a single lot's status within a transaction
func (r *PostgresLotRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, lotID uuid.UUID, status auction.LotStatus) error {
	query := `
		UPDATE lots
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := tx.Exec(ctx, query, status, lotID)
	if err != nil {
		return fmt.Errorf("failed to update lot status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return auction.ErrLotNotFound
	}
	return nil
}

// UpdateStatuses updates the status of every given lot within a transaction
func (r *PostgresLotRepository) UpdateStatuses(ctx context.Context, tx pgx.Tx, lotIDs []uuid.UUID, status auction.LotStatus) error {
	query := `
		UPDATE lots
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2)
	`
	result, err := tx.Exec(ctx, query, status, lotIDs)
	if err != nil {
		return fmt.Errorf("failed to update lot statuses: %w", err)
	}
	if int(result.RowsAffected()) != len(lotIDs) {
		return fmt.Errorf("expected to update %d lots, updated %d", len(lotIDs), result.RowsAffected())
	}
	return nil
}

// UpdateOrder rewrites order indexes to match the given id sequence
func (r *PostgresLotRepository) UpdateOrder(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, order []uuid.UUID) error {
	query := `
		UPDATE lots
		SET order_index = $1, updated_at = NOW()
		WHERE id = $2 AND auction_id = $3
	`
	for idx, id := range order {
		result, err := tx.Exec(ctx, query, idx, id, auctionID)
		if err != nil {
			return fmt.Errorf("failed to update lot order: %w", err)
		}
		if result.RowsAffected() == 0 {
			return auction.ErrLotNotFound
		}
	}
	return nil
}

// ListByAuctionID retrieves all lots for an auction in queue order
func (r *PostgresLotRepository) ListByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*auction.Lot, error) {
	query := `
		SELECT id, auction_id, external_ref, base_price, order_index, status, created_at, updated_at
		FROM lots
		WHERE auction_id = $1
		ORDER BY order_index ASC
	`
	rows, err := r.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	var result []*auction.Lot
	for rows.Next() {
		var l auction.Lot
		if err := rows.Scan(
			&l.ID,
			&l.AuctionID,
			&l.ExternalRef,
			&l.BasePrice,
			&l.OrderIndex,
			&l.Status,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		result = append(result, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lots: %w", err)
	}
	return result, nil
}
