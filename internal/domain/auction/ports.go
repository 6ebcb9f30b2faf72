package auction

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hammerd/hammerd/pkg/events"
)

// AuctionRepository defines the interface for auction instance persistence
type AuctionRepository interface {
	// CreateAuction creates a new auction within a transaction
	CreateAuction(ctx context.Context, tx pgx.Tx, a *Auction) error

	// UpdateStatus updates the auction's lifecycle status within a transaction
	UpdateStatus(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, status Status) error

	// GetAuctionByID retrieves an auction by its ID
	GetAuctionByID(ctx context.Context, auctionID uuid.UUID) (*Auction, error)
}

// LotRepository defines the interface for lot persistence
type LotRepository interface {
	// InsertLots inserts the seeded lot pool within a transaction
	InsertLots(ctx context.Context, tx pgx.Tx, lots []*Lot) error

	// UpdateStatus updates a single lot's status within a transaction
	UpdateStatus(ctx context.Context, tx pgx.Tx, lotID uuid.UUID, status LotStatus) error

	// UpdateStatuses updates the status of every given lot within a transaction
	UpdateStatuses(ctx context.Context, tx pgx.Tx, lotIDs []uuid.UUID, status LotStatus) error

	// UpdateOrder rewrites order indexes to match the given id sequence
	UpdateOrder(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, order []uuid.UUID) error

	// ListByAuctionID retrieves all lots for an auction in queue order
	ListByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*Lot, error)
}

// BidderRepository defines the interface for bidder persistence
type BidderRepository interface {
	// CreateBidder registers a bidder within a transaction
	CreateBidder(ctx context.Context, tx pgx.Tx, b *Bidder) error

	// UpdateSpent writes a bidder's new spent total within a transaction
	UpdateSpent(ctx context.Context, tx pgx.Tx, bidderID uuid.UUID, spent int64) error

	// ListByAuctionID retrieves all bidders for an auction
	ListByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*Bidder, error)
}

// BidRepository defines the interface for the append-only bid trail
type BidRepository interface {
	// SaveBid saves a bid within a transaction
	SaveBid(ctx context.Context, tx pgx.Tx, bid *Bid) error

	// ListByLotID retrieves all bids for a lot in admission order
	ListByLotID(ctx context.Context, lotID uuid.UUID) ([]*Bid, error)

	// ListByAuctionID retrieves all bids across an auction's lots in admission order
	ListByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*Bid, error)
}

// SaleRepository defines the interface for settlement records
type SaleRepository interface {
	// SaveSale saves a settlement record within a transaction
	SaveSale(ctx context.Context, tx pgx.Tx, sale *Sale) error

	// DeleteUnsoldByLotIDs invalidates prior unsold sales for re-auctioned lots
	DeleteUnsoldByLotIDs(ctx context.Context, tx pgx.Tx, lotIDs []uuid.UUID) error

	// ListByAuctionID retrieves all settlement records for an auction
	ListByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*Sale, error)
}

// OutboxRepository defines the interface for outbox event persistence
type OutboxRepository interface {
	// SaveEvent saves an outbox event within a transaction
	SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error
}

// LotSource supplies the ordered eligibility list an auction is seeded from
// at go-live (players who expressed interest in the tournament).
type LotSource interface {
	ListEligibleLots(ctx context.Context, auctionID uuid.UUID) ([]EligibleLot, error)
}

// RosterRule supplies the external roster-size cap. A result of zero or less
// means no cap. The engine derives the current roster size from its own
// settlement records.
type RosterRule interface {
	MaxRosterSize(ctx context.Context, auctionID uuid.UUID) (int, error)
}
