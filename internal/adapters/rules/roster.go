package rules

import (
	"context"

	"github.com/google/uuid"
)

// StaticRosterRule implements auction.RosterRule with one fixed cap for
// every auction. Zero or negative means no cap. Tournament-specific roster
// rules live outside this service; this stands in at their boundary.
type StaticRosterRule struct {
	Max int
}

// MaxRosterSize returns the configured cap
func (r StaticRosterRule) MaxRosterSize(ctx context.Context, auctionID uuid.UUID) (int, error) {
	return r.Max, nil
}
