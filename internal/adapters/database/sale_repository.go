package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerd/hammerd/internal/domain/auction"
)

// PostgresSaleRepository implements auction.SaleRepository using pgx
type PostgresSaleRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSaleRepository creates a new PostgreSQL sale repository
func NewPostgresSaleRepository(pool *pgxpool.Pool) *PostgresSaleRepository {
	return &PostgresSaleRepository{pool: pool}
}

// SaveSale saves a settlement record within a transaction
func (r *PostgresSaleRepository) SaveSale(ctx context.Context, tx pgx.Tx, sale *auction.Sale) error {
	query := `
		INSERT INTO sales (id, auction_id, lot_id, bidder_id, final_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		sale.ID,
		sale.AuctionID,
		sale.LotID,
		sale.BidderID,
		sale.FinalPrice,
		sale.Status,
		sale.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}
	return nil
}

// DeleteUnsoldByLotIDs invalidates prior unsold sales for re-auctioned lots.
// Sold sales are never touched.
func (r *PostgresSaleRepository) DeleteUnsoldByLotIDs(ctx context.Context, tx pgx.Tx, lotIDs []uuid.UUID) error {
	query := `
		DELETE FROM sales
		WHERE lot_id = ANY($1) AND status = 'unsold'
	`
	_, err := tx.Exec(ctx, query, lotIDs)
	if err != nil {
		return fmt.Errorf("failed to delete unsold sales: %w", err)
	}
	return nil
}

// ListByAuctionID retrieves all settlement records for an auction
func (r *PostgresSaleRepository) ListByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*auction.Sale, error) {
	query := `
		SELECT id, auction_id, lot_id, bidder_id, final_price, status, created_at
		FROM sales
		WHERE auction_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var result []*auction.Sale
	for rows.Next() {
		var sale auction.Sale
		if err := rows.Scan(
			&sale.ID,
			&sale.AuctionID,
			&sale.LotID,
			&sale.BidderID,
			&sale.FinalPrice,
			&sale.Status,
			&sale.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		result = append(result, &sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}
	return result, nil
}
