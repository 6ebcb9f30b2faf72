package auction

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is the read-only projection of one auction's engine state. It is
// an immutable copy: observers can hold it, serialize it, or diff versions
// without touching the write path.
type Snapshot struct {
	Version         uint64       `json:"version"`
	AuctionID       uuid.UUID    `json:"auction_id"`
	AuctioneerID    uuid.UUID    `json:"auctioneer_id"`
	Status          Status       `json:"status"`
	BudgetPerBidder int64        `json:"budget_per_bidder"`
	BidIncrement    int64        `json:"bid_increment"`
	ActiveLot       *LotView     `json:"active_lot,omitempty"`
	Leader          *LeaderView  `json:"leader,omitempty"`
	ActiveLotBids   []BidView    `json:"active_lot_bids,omitempty"`
	RequiredMinimum int64        `json:"required_minimum,omitempty"`
	Bidders         []BidderView `json:"bidders"`
	Sales           []SaleView   `json:"sales"`
	LotsRemaining   int          `json:"lots_remaining"`
	TakenAt         time.Time    `json:"taken_at"`
}

// LotView is the observer's view of a lot
type LotView struct {
	ID          uuid.UUID `json:"id"`
	ExternalRef string    `json:"external_ref"`
	BasePrice   int64     `json:"base_price"`
	OrderIndex  int       `json:"order_index"`
	Status      LotStatus `json:"status"`
}

// LeaderView identifies the current leading bid on the active lot
type LeaderView struct {
	BidderID uuid.UUID `json:"bidder_id"`
	Amount   int64     `json:"amount"`
}

// BidView is the observer's view of one admitted bid
type BidView struct {
	ID        uuid.UUID `json:"id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// BidderView is the observer's view of a bidder's ledger position
type BidderView struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Budget    int64     `json:"budget"`
	Spent     int64     `json:"spent"`
	Remaining int64     `json:"remaining"`
}

// SaleView is the observer's view of a settlement record
type SaleView struct {
	LotID      uuid.UUID  `json:"lot_id"`
	BidderID   *uuid.UUID `json:"bidder_id,omitempty"`
	FinalPrice *int64     `json:"final_price,omitempty"`
	Status     SaleStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}
