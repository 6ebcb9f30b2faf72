package auction

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an auction instance
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
)

// Auction represents one auction run for a tournament
type Auction struct {
	ID              uuid.UUID `db:"id"`
	AuctioneerID    uuid.UUID `db:"auctioneer_id"`
	Status          Status    `db:"status"`
	BudgetPerBidder int64     `db:"budget_per_bidder"` // in cents/micros
	BidIncrement    int64     `db:"bid_increment"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// IsOwnedBy reports whether the given user is the auctioneer for this auction
func (a *Auction) IsOwnedBy(userID uuid.UUID) bool {
	return a.AuctioneerID == userID
}

// LotStatus represents the lifecycle state of a single lot
type LotStatus string

const (
	LotStatusPending   LotStatus = "pending"
	LotStatusReAuction LotStatus = "re_auction"
	LotStatusSold      LotStatus = "sold"
	LotStatusUnsold    LotStatus = "unsold"
)

// Lot is one item in an auction's pool (a player entered into the tournament)
type Lot struct {
	ID          uuid.UUID `db:"id"`
	AuctionID   uuid.UUID `db:"auction_id"`
	ExternalRef string    `db:"external_ref"` // id of the player in the tournament system
	BasePrice   int64     `db:"base_price"`
	OrderIndex  int       `db:"order_index"`
	Status      LotStatus `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Eligible reports whether the lot can still come up for bidding
func (l *Lot) Eligible() bool {
	return l.Status == LotStatusPending || l.Status == LotStatusReAuction
}

// Settled reports whether the lot has reached a terminal outcome
func (l *Lot) Settled() bool {
	return l.Status == LotStatusSold || l.Status == LotStatusUnsold
}

// Bidder is a team competing in one auction with a fixed budget
type Bidder struct {
	ID        uuid.UUID `db:"id"`
	AuctionID uuid.UUID `db:"auction_id"`
	UserID    uuid.UUID `db:"user_id"`
	Name      string    `db:"name"`
	Budget    int64     `db:"budget"`
	Spent     int64     `db:"spent"`
	CreatedAt time.Time `db:"created_at"`
}

// Remaining returns the budget left for this bidder
func (b *Bidder) Remaining() int64 {
	return b.Budget - b.Spent
}

// Bid represents one admitted bid on a lot. Bids are append-only.
type Bid struct {
	ID        uuid.UUID `db:"id"`
	LotID     uuid.UUID `db:"lot_id"`
	BidderID  uuid.UUID `db:"bidder_id"`
	Amount    int64     `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
}

// SaleStatus represents the terminal outcome recorded for a lot
type SaleStatus string

const (
	SaleStatusSold   SaleStatus = "sold"
	SaleStatusUnsold SaleStatus = "unsold"
)

// Sale is the settlement record created when a lot leaves the active state.
// A sold sale is immutable; an unsold sale is invalidated if the lot is re-auctioned.
type Sale struct {
	ID         uuid.UUID  `db:"id"`
	AuctionID  uuid.UUID  `db:"auction_id"`
	LotID      uuid.UUID  `db:"lot_id"`
	BidderID   *uuid.UUID `db:"bidder_id"`
	FinalPrice *int64     `db:"final_price"`
	Status     SaleStatus `db:"status"`
	CreatedAt  time.Time  `db:"created_at"`
}

// EligibleLot is one entry of the eligibility list consumed at go-live
type EligibleLot struct {
	ExternalRef string
	BasePrice   int64
}

// CreateAuctionCommand represents the command to create a published auction
type CreateAuctionCommand struct {
	AuctioneerID    uuid.UUID
	BudgetPerBidder int64
	BidIncrement    int64
}

// RegisterBidderCommand represents the command to register a team onto an auction
type RegisterBidderCommand struct {
	AuctionID uuid.UUID
	UserID    uuid.UUID
	Name      string
}

// PlaceBidCommand represents the command to place a bid on the active lot
type PlaceBidCommand struct {
	AuctionID uuid.UUID
	LotID     uuid.UUID
	BidderID  uuid.UUID
	CallerID  uuid.UUID
	Amount    int64
}

// SettleSoldCommand represents the auctioneer's command to settle the active lot as sold.
// Bidder and price are taken as given, so the auctioneer can override the tracked
// leader; budget is re-validated either way.
type SettleSoldCommand struct {
	AuctionID  uuid.UUID
	LotID      uuid.UUID
	BidderID   uuid.UUID
	FinalPrice int64
	CallerID   uuid.UUID
}
