package auction

import (
	"fmt"

	"github.com/google/uuid"
)

// BidRegister is the single source of truth for who is winning the active
// lot, at what price. Its leader state is transient: it is opened when a lot
// becomes active, rebuilt from recorded bids on hydration, and discarded once
// the lot settles. Only the appended Bid rows need durability.
type BidRegister struct {
	increment    int64
	lotID        uuid.UUID
	open         bool
	leaderID     uuid.UUID
	leaderAmount int64
	hasLeader    bool
	bids         []*Bid
}

// NewBidRegister creates a register using the given minimum raise increment
func NewBidRegister(increment int64) *BidRegister {
	return &BidRegister{increment: increment}
}

// Open points the register at a newly active lot. Any bid history for the
// lot (relevant after re-auction or process restart) seeds the leader.
func (r *BidRegister) Open(lot *Lot, history []*Bid) {
	r.lotID = lot.ID
	r.open = true
	r.hasLeader = false
	r.leaderID = uuid.Nil
	r.leaderAmount = 0
	r.bids = nil
	for _, b := range history {
		// History is in admission order; each admitted bid strictly
		// exceeded its predecessor, so the last one leads.
		r.bids = append(r.bids, b)
		r.leaderID = b.BidderID
		r.leaderAmount = b.Amount
		r.hasLeader = true
	}
}

// Close discards the register state after the active lot settles
func (r *BidRegister) Close() {
	r.open = false
	r.lotID = uuid.Nil
	r.hasLeader = false
	r.leaderID = uuid.Nil
	r.leaderAmount = 0
	r.bids = nil
}

// Leader returns the current leading bidder and amount
func (r *BidRegister) Leader() (uuid.UUID, int64, bool) {
	if !r.open || !r.hasLeader {
		return uuid.Nil, 0, false
	}
	return r.leaderID, r.leaderAmount, true
}

// Bids returns the admitted bids for the active lot in admission order
func (r *BidRegister) Bids() []*Bid {
	return r.bids
}

// RequiredMinimum returns the lowest admissible bid amount: the lot's base
// price for the opening bid, then leader + increment.
func (r *BidRegister) RequiredMinimum(lot *Lot) int64 {
	if r.hasLeader {
		return r.leaderAmount + r.increment
	}
	return lot.BasePrice
}

// Admit validates a proposed bid against the active lot. Any amount at or
// above the required minimum is admissible; a bidder cannot raise against
// their own leading bid. Admit has no side effects: the engine persists the
// bid first and then applies it with Accept.
func (r *BidRegister) Admit(lot *Lot, bidderID uuid.UUID, amount int64) error {
	if !r.open || r.lotID != lot.ID {
		return ErrLotNotActive
	}
	if min := r.RequiredMinimum(lot); amount < min {
		return fmt.Errorf("%w: minimum is %d", ErrBidTooLow, min)
	}
	if r.hasLeader && r.leaderID == bidderID {
		return fmt.Errorf("%w: already the current leader", ErrBidderIneligible)
	}
	return nil
}

// Accept records an admitted bid as the new leader
func (r *BidRegister) Accept(bid *Bid) {
	r.bids = append(r.bids, bid)
	r.leaderID = bid.BidderID
	r.leaderAmount = bid.Amount
	r.hasLeader = true
}
