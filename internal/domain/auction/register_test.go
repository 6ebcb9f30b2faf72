package auction

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBidRegister_OpeningBid(t *testing.T) {
	lot := &Lot{ID: uuid.New(), BasePrice: 500, Status: LotStatusPending}
	r := NewBidRegister(100)
	r.Open(lot, nil)

	bidder := uuid.New()

	t.Run("below base price rejected", func(t *testing.T) {
		err := r.Admit(lot, bidder, 499)
		assert.ErrorIs(t, err, ErrBidTooLow)
	})

	t.Run("at base price admitted", func(t *testing.T) {
		assert.NoError(t, r.Admit(lot, bidder, 500))
	})

	t.Run("jump above base price admitted", func(t *testing.T) {
		assert.NoError(t, r.Admit(lot, bidder, 5000))
	})

	t.Run("required minimum is the base price", func(t *testing.T) {
		assert.Equal(t, int64(500), r.RequiredMinimum(lot))
	})
}

func TestBidRegister_Raises(t *testing.T) {
	lot := &Lot{ID: uuid.New(), BasePrice: 500, Status: LotStatusPending}
	r := NewBidRegister(100)
	r.Open(lot, nil)

	alice := uuid.New()
	bob := uuid.New()

	r.Accept(&Bid{ID: uuid.New(), LotID: lot.ID, BidderID: alice, Amount: 500})

	t.Run("minimum moves to leader plus increment", func(t *testing.T) {
		assert.Equal(t, int64(600), r.RequiredMinimum(lot))
	})

	t.Run("raise below minimum rejected", func(t *testing.T) {
		err := r.Admit(lot, bob, 599)
		assert.ErrorIs(t, err, ErrBidTooLow)
	})

	t.Run("leader cannot raise own bid", func(t *testing.T) {
		err := r.Admit(lot, alice, 700)
		assert.ErrorIs(t, err, ErrBidderIneligible)
	})

	t.Run("valid raise admitted and leads after accept", func(t *testing.T) {
		require.NoError(t, r.Admit(lot, bob, 600))
		r.Accept(&Bid{ID: uuid.New(), LotID: lot.ID, BidderID: bob, Amount: 600})

		leaderID, amount, ok := r.Leader()
		require.True(t, ok)
		assert.Equal(t, bob, leaderID)
		assert.Equal(t, int64(600), amount)
		assert.Len(t, r.Bids(), 2)
	})
}

func TestBidRegister_WrongLot(t *testing.T) {
	lot := &Lot{ID: uuid.New(), BasePrice: 500, Status: LotStatusPending}
	other := &Lot{ID: uuid.New(), BasePrice: 500, Status: LotStatusPending}
	r := NewBidRegister(100)
	r.Open(lot, nil)

	err := r.Admit(other, uuid.New(), 500)
	assert.ErrorIs(t, err, ErrLotNotActive)
}

func TestBidRegister_ClosedRegisterRejectsBids(t *testing.T) {
	lot := &Lot{ID: uuid.New(), BasePrice: 500, Status: LotStatusPending}
	r := NewBidRegister(100)
	r.Open(lot, nil)
	r.Close()

	err := r.Admit(lot, uuid.New(), 500)
	assert.ErrorIs(t, err, ErrLotNotActive)

	_, _, ok := r.Leader()
	assert.False(t, ok)
}

func TestBidRegister_OpenWithHistorySeedsLeader(t *testing.T) {
	lot := &Lot{ID: uuid.New(), BasePrice: 500, Status: LotStatusReAuction}
	alice := uuid.New()
	bob := uuid.New()
	history := []*Bid{
		{ID: uuid.New(), LotID: lot.ID, BidderID: alice, Amount: 500},
		{ID: uuid.New(), LotID: lot.ID, BidderID: bob, Amount: 700},
	}

	r := NewBidRegister(100)
	r.Open(lot, history)

	leaderID, amount, ok := r.Leader()
	require.True(t, ok)
	assert.Equal(t, bob, leaderID)
	assert.Equal(t, int64(700), amount)
	assert.Equal(t, int64(800), r.RequiredMinimum(lot))

	// The prior leader still cannot raise against themselves
	err := r.Admit(lot, bob, 800)
	assert.ErrorIs(t, err, ErrBidderIneligible)
	assert.NoError(t, r.Admit(lot, alice, 800))
}
