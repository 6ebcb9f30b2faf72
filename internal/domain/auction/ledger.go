package auction

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Ledger is the authoritative budget accounting for all bidders of one auction.
// It is owned by the engine's serialized path: checks and debits are only
// meaningful when evaluated inside the same engine step as the mutation they gate.
type Ledger struct {
	bidders map[uuid.UUID]*Bidder
}

// NewLedger creates a ledger seeded with the given bidders
func NewLedger(bidders []*Bidder) *Ledger {
	l := &Ledger{bidders: make(map[uuid.UUID]*Bidder, len(bidders))}
	for _, b := range bidders {
		l.bidders[b.ID] = b
	}
	return l
}

// Add registers a new bidder
func (l *Ledger) Add(b *Bidder) {
	l.bidders[b.ID] = b
}

// Get returns the bidder with the given id
func (l *Ledger) Get(bidderID uuid.UUID) (*Bidder, bool) {
	b, ok := l.bidders[bidderID]
	return b, ok
}

// Len returns the number of registered bidders
func (l *Ledger) Len() int {
	return len(l.bidders)
}

// Remaining returns budget - spent for the given bidder
func (l *Ledger) Remaining(bidderID uuid.UUID) (int64, error) {
	b, ok := l.bidders[bidderID]
	if !ok {
		return 0, ErrBidderNotFound
	}
	return b.Remaining(), nil
}

// ReserveCheck reports whether the bidder can afford the given amount
func (l *Ledger) ReserveCheck(bidderID uuid.UUID, amount int64) bool {
	b, ok := l.bidders[bidderID]
	if !ok {
		return false
	}
	return amount <= b.Remaining()
}

// Debit increments the bidder's spent total. It fails rather than let
// spent exceed budget.
func (l *Ledger) Debit(bidderID uuid.UUID, amount int64) error {
	b, ok := l.bidders[bidderID]
	if !ok {
		return ErrBidderNotFound
	}
	if b.Spent+amount > b.Budget {
		return fmt.Errorf("%w: remaining %d, debit %d", ErrInsufficientBudget, b.Remaining(), amount)
	}
	b.Spent += amount
	return nil
}

// Bidders returns all bidders ordered by registration time
func (l *Ledger) Bidders() []*Bidder {
	out := make([]*Bidder, 0, len(l.bidders))
	for _, b := range l.bidders {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
