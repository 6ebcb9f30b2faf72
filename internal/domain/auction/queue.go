package auction

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// LotQueue holds the ordered lot pool of one auction. Traversal is by
// ascending order index; the active lot is always the first lot that is
// still pending or up for re-auction.
type LotQueue struct {
	lots []*Lot
}

// NewLotQueue creates a queue from the given lots, sorted by order index
func NewLotQueue(lots []*Lot) *LotQueue {
	q := &LotQueue{lots: lots}
	sort.Slice(q.lots, func(i, j int) bool { return q.lots[i].OrderIndex < q.lots[j].OrderIndex })
	return q
}

// Current returns the active lot, or nil when no lot is left to sell
func (q *LotQueue) Current() *Lot {
	for _, l := range q.lots {
		if l.Eligible() {
			return l
		}
	}
	return nil
}

// Get returns the lot with the given id
func (q *LotQueue) Get(lotID uuid.UUID) (*Lot, bool) {
	for _, l := range q.lots {
		if l.ID == lotID {
			return l, true
		}
	}
	return nil, false
}

// Len returns the number of lots in the pool
func (q *LotQueue) Len() int {
	return len(q.lots)
}

// RemainingCount returns how many lots are still eligible to be sold
func (q *LotQueue) RemainingCount() int {
	n := 0
	for _, l := range q.lots {
		if l.Eligible() {
			n++
		}
	}
	return n
}

// Lots returns the lots in queue order
func (q *LotQueue) Lots() []*Lot {
	return q.lots
}

// ValidateReorder checks that the given id sequence names every lot exactly
// once and does not move settled lots.
func (q *LotQueue) ValidateReorder(order []uuid.UUID) error {
	if len(order) != len(q.lots) {
		return fmt.Errorf("%w: order names %d lots, pool has %d", ErrLotNotFound, len(order), len(q.lots))
	}
	seen := make(map[uuid.UUID]bool, len(order))
	byID := make(map[uuid.UUID]*Lot, len(q.lots))
	for _, l := range q.lots {
		byID[l.ID] = l
	}
	for idx, id := range order {
		l, ok := byID[id]
		if !ok || seen[id] {
			return fmt.Errorf("%w: %s", ErrLotNotFound, id)
		}
		seen[id] = true
		if l.Settled() && l.OrderIndex != idx {
			return fmt.Errorf("cannot reorder settled lot %s", id)
		}
	}
	return nil
}

// Reorder rewrites the order indexes to match the given id sequence.
// The engine only calls this while the auction is not live, after the new
// order has been validated and persisted.
func (q *LotQueue) Reorder(order []uuid.UUID) error {
	if err := q.ValidateReorder(order); err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*Lot, len(q.lots))
	for _, l := range q.lots {
		byID[l.ID] = l
	}
	reordered := make([]*Lot, 0, len(order))
	for idx, id := range order {
		l := byID[id]
		l.OrderIndex = idx
		reordered = append(reordered, l)
	}
	q.lots = reordered
	return nil
}

// RequeueForReAuction flips the given lots back to re-auction eligibility.
// Only currently unsold lots transition; everything else is skipped, which
// makes re-running with the same set a no-op. Returns the ids that changed.
func (q *LotQueue) RequeueForReAuction(lotIDs []uuid.UUID) []uuid.UUID {
	want := make(map[uuid.UUID]bool, len(lotIDs))
	for _, id := range lotIDs {
		want[id] = true
	}
	var changed []uuid.UUID
	for _, l := range q.lots {
		if want[l.ID] && l.Status == LotStatusUnsold {
			l.Status = LotStatusReAuction
			changed = append(changed, l.ID)
		}
	}
	return changed
}

// UnsoldIDs returns the ids of all currently unsold lots in queue order
func (q *LotQueue) UnsoldIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, l := range q.lots {
		if l.Status == LotStatusUnsold {
			ids = append(ids, l.ID)
		}
	}
	return ids
}
