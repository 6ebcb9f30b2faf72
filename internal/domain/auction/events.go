package auction

import (
	"time"

	"github.com/google/uuid"
)

// Event types published through the transactional outbox. Routing keys on
// the broker match these values.
const (
	EventTypeAuctionStarted   = "auction.started"
	EventTypeBidPlaced        = "bid.placed"
	EventTypeLotSold          = "lot.sold"
	EventTypeLotUnsold        = "lot.unsold"
	EventTypeLotsRequeued     = "lots.requeued"
	EventTypeAuctionCompleted = "auction.completed"
)

// AuctionStartedEvent is emitted when an auction goes live
type AuctionStartedEvent struct {
	AuctionID   uuid.UUID `json:"auction_id"`
	LotCount    int       `json:"lot_count"`
	BidderCount int       `json:"bidder_count"`
	StartedAt   time.Time `json:"started_at"`
}

// BidPlacedEvent is emitted for every admitted bid
type BidPlacedEvent struct {
	AuctionID uuid.UUID `json:"auction_id"`
	LotID     uuid.UUID `json:"lot_id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	Amount    int64     `json:"amount"`
	PlacedAt  time.Time `json:"placed_at"`
}

// LotSoldEvent is emitted when the active lot settles as sold
type LotSoldEvent struct {
	AuctionID  uuid.UUID `json:"auction_id"`
	LotID      uuid.UUID `json:"lot_id"`
	BidderID   uuid.UUID `json:"bidder_id"`
	FinalPrice int64     `json:"final_price"`
	SettledAt  time.Time `json:"settled_at"`
}

// LotUnsoldEvent is emitted when the active lot settles as unsold
type LotUnsoldEvent struct {
	AuctionID uuid.UUID `json:"auction_id"`
	LotID     uuid.UUID `json:"lot_id"`
	SettledAt time.Time `json:"settled_at"`
}

// LotsRequeuedEvent is emitted when unsold lots return for re-auction
type LotsRequeuedEvent struct {
	AuctionID  uuid.UUID   `json:"auction_id"`
	LotIDs     []uuid.UUID `json:"lot_ids"`
	RequeuedAt time.Time   `json:"requeued_at"`
}

// AuctionCompletedEvent is emitted when the auctioneer ends the auction
type AuctionCompletedEvent struct {
	AuctionID   uuid.UUID `json:"auction_id"`
	CompletedAt time.Time `json:"completed_at"`
}
