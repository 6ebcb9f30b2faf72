package auction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hammerd/hammerd/pkg/database"
	"github.com/hammerd/hammerd/pkg/events"
)

// Engine owns all auction state while an auction runs. Every mutating
// command for one auction is applied under that auction's session lock, so
// bid admission, budget checks and settlement are atomic with respect to
// each other. Different auctions run fully in parallel.
//
// Authoritative state lives in memory with durable write-through: a command
// validates against in-memory state, persists its changes (plus the matching
// outbox event) in one transaction, and only then applies them in memory.
// A failed persist fails the command and leaves memory untouched.
type Engine struct {
	txManager  database.TransactionManager
	auctions   AuctionRepository
	lots       LotRepository
	bidders    BidderRepository
	bids       BidRepository
	sales      SaleRepository
	outbox     OutboxRepository
	lotSource  LotSource
	roster     RosterRule
	logger     *slog.Logger
	onSnapshot func(*Snapshot)

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// session is the serialized command scope for one auction instance
type session struct {
	mu sync.Mutex

	auction   *Auction
	ledger    *Ledger
	queue     *LotQueue
	register  *BidRegister
	bidsByLot map[uuid.UUID][]*Bid
	sales     []*Sale
	sold      map[uuid.UUID]int // sold-lot count per bidder (current roster size)

	version uint64
	snap    atomic.Pointer[Snapshot]
}

// NewEngine creates an auction engine
func NewEngine(
	txManager database.TransactionManager,
	auctions AuctionRepository,
	lots LotRepository,
	bidders BidderRepository,
	bids BidRepository,
	sales SaleRepository,
	outbox OutboxRepository,
	lotSource LotSource,
	roster RosterRule,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		txManager: txManager,
		auctions:  auctions,
		lots:      lots,
		bidders:   bidders,
		bids:      bids,
		sales:     sales,
		outbox:    outbox,
		lotSource: lotSource,
		roster:    roster,
		logger:    logger,
		sessions:  make(map[uuid.UUID]*session),
	}
}

// OnSnapshot registers a listener invoked with every new snapshot version.
// The listener runs on the mutating path and must not call back into the
// engine. Set it before the engine starts taking commands.
func (e *Engine) OnSnapshot(fn func(*Snapshot)) {
	e.onSnapshot = fn
}

// CreateAuction creates a published auction owned by its auctioneer
func (e *Engine) CreateAuction(ctx context.Context, cmd CreateAuctionCommand) (*Snapshot, error) {
	if cmd.BudgetPerBidder <= 0 {
		return nil, ErrInvalidBudget
	}
	if cmd.BidIncrement <= 0 {
		return nil, ErrInvalidIncrement
	}

	now := time.Now()
	a := &Auction{
		ID:              uuid.New(),
		AuctioneerID:    cmd.AuctioneerID,
		Status:          StatusPublished,
		BudgetPerBidder: cmd.BudgetPerBidder,
		BidIncrement:    cmd.BidIncrement,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := e.inTx(ctx, func(tx pgx.Tx) error {
		return e.auctions.CreateAuction(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}

	s := newSession(a, nil, nil, nil, nil)
	snap := e.publish(s) // not yet reachable, no lock needed

	e.mu.Lock()
	e.sessions[a.ID] = s
	e.mu.Unlock()

	e.logger.Info("auction created", "auction_id", a.ID, "auctioneer_id", a.AuctioneerID)
	return snap, nil
}

// RegisterBidder registers a team onto a published auction. Registration
// closes at go-live; each bidder starts with the auction's per-team budget.
func (e *Engine) RegisterBidder(ctx context.Context, cmd RegisterBidderCommand) (*Snapshot, error) {
	s, err := e.getSession(ctx, cmd.AuctionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.auction.Status {
	case StatusCompleted:
		return nil, ErrAlreadyCompleted
	case StatusLive:
		return nil, ErrAuctionLive
	}

	b := &Bidder{
		ID:        uuid.New(),
		AuctionID: cmd.AuctionID,
		UserID:    cmd.UserID,
		Name:      cmd.Name,
		Budget:    s.auction.BudgetPerBidder,
		Spent:     0,
		CreatedAt: time.Now(),
	}

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		return e.bidders.CreateBidder(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Add(b)
	e.logger.Info("bidder registered", "auction_id", cmd.AuctionID, "bidder_id", b.ID, "name", b.Name)
	return e.publish(s), nil
}

// StartAuction takes a published auction live, seeding its lot pool from
// the eligibility list exactly once. Starting an already-live auction is a
// no-op returning the current snapshot.
func (e *Engine) StartAuction(ctx context.Context, auctionID, callerID uuid.UUID) (*Snapshot, error) {
	s, err := e.getSession(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.auction.IsOwnedBy(callerID) {
		return nil, ErrNotOwner
	}
	switch s.auction.Status {
	case StatusCompleted:
		return nil, ErrAlreadyCompleted
	case StatusLive:
		// Duplicate start command: no reseed, no error
		return s.snap.Load(), nil
	}

	if s.ledger.Len() == 0 {
		return nil, ErrNoBidders
	}

	// Seed lots unless a previous start already did (crash between persist
	// and go-live leaves seeded lots behind; don't duplicate them)
	var seeded []*Lot
	if s.queue.Len() == 0 {
		eligible, srcErr := e.lotSource.ListEligibleLots(ctx, auctionID)
		if srcErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, srcErr)
		}
		if len(eligible) == 0 {
			return nil, ErrNoLots
		}
		now := time.Now()
		for i, el := range eligible {
			seeded = append(seeded, &Lot{
				ID:          uuid.New(),
				AuctionID:   auctionID,
				ExternalRef: el.ExternalRef,
				BasePrice:   el.BasePrice,
				OrderIndex:  i,
				Status:      LotStatusPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
	}

	lotCount := s.queue.Len() + len(seeded)
	event, err := newOutboxEvent(EventTypeAuctionStarted, AuctionStartedEvent{
		AuctionID:   auctionID,
		LotCount:    lotCount,
		BidderCount: s.ledger.Len(),
		StartedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		if len(seeded) > 0 {
			if insErr := e.lots.InsertLots(ctx, tx, seeded); insErr != nil {
				return insErr
			}
		}
		if upErr := e.auctions.UpdateStatus(ctx, tx, auctionID, StatusLive); upErr != nil {
			return upErr
		}
		return e.outbox.SaveEvent(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	if len(seeded) > 0 {
		s.queue = NewLotQueue(seeded)
	}
	s.auction.Status = StatusLive
	s.auction.UpdatedAt = time.Now()
	s.syncRegister()

	e.logger.Info("auction started", "auction_id", auctionID, "lots", lotCount, "bidders", s.ledger.Len())
	return e.publish(s), nil
}

// PlaceBid admits a bid on the active lot. Bids are admitted in the order
// their command acquires the session lock, not by client timestamp.
func (e *Engine) PlaceBid(ctx context.Context, cmd PlaceBidCommand) (*Snapshot, error) {
	s, err := e.getSession(ctx, cmd.AuctionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.auction.Status != StatusLive {
		return nil, ErrAuctionNotLive
	}

	bidder, ok := s.ledger.Get(cmd.BidderID)
	if !ok {
		return nil, ErrBidderNotFound
	}
	if cmd.CallerID != uuid.Nil && bidder.UserID != cmd.CallerID {
		return nil, ErrNotBidder
	}

	lot := s.queue.Current()
	if lot == nil || lot.ID != cmd.LotID {
		return nil, ErrLotNotActive
	}

	if admitErr := s.register.Admit(lot, cmd.BidderID, cmd.Amount); admitErr != nil {
		return nil, admitErr
	}
	if !s.ledger.ReserveCheck(cmd.BidderID, cmd.Amount) {
		remaining, _ := s.ledger.Remaining(cmd.BidderID)
		return nil, fmt.Errorf("%w: remaining %d, bid %d", ErrInsufficientBudget, remaining, cmd.Amount)
	}
	if rosterErr := e.checkRoster(ctx, s, cmd.BidderID); rosterErr != nil {
		return nil, rosterErr
	}

	bid := &Bid{
		ID:        uuid.New(),
		LotID:     lot.ID,
		BidderID:  cmd.BidderID,
		Amount:    cmd.Amount,
		CreatedAt: time.Now(),
	}
	event, err := newOutboxEvent(EventTypeBidPlaced, BidPlacedEvent{
		AuctionID: cmd.AuctionID,
		LotID:     bid.LotID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		PlacedAt:  bid.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		if saveErr := e.bids.SaveBid(ctx, tx, bid); saveErr != nil {
			return saveErr
		}
		return e.outbox.SaveEvent(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.register.Accept(bid)
	s.bidsByLot[lot.ID] = append(s.bidsByLot[lot.ID], bid)

	e.logger.Info("bid placed", "auction_id", cmd.AuctionID, "lot_id", lot.ID, "bidder_id", cmd.BidderID, "amount", cmd.Amount)
	return e.publish(s), nil
}

// SettleSold settles the active lot as sold to the given bidder at the given
// price, debiting the bidder's ledger. Bidder and price are the auctioneer's
// call and may differ from the tracked leader, but the budget invariant is
// re-validated regardless. Debit, lot status, sale record and outbox event
// commit in one transaction or not at all.
func (e *Engine) SettleSold(ctx context.Context, cmd SettleSoldCommand) (*Snapshot, error) {
	s, err := e.getSession(ctx, cmd.AuctionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.auction.IsOwnedBy(cmd.CallerID) {
		return nil, ErrNotOwner
	}
	if s.auction.Status != StatusLive {
		return nil, ErrAuctionNotLive
	}

	lot := s.queue.Current()
	if lot == nil || lot.ID != cmd.LotID {
		return nil, ErrLotNotActive
	}

	bidder, ok := s.ledger.Get(cmd.BidderID)
	if !ok {
		return nil, ErrBidderNotFound
	}
	if cmd.FinalPrice <= 0 {
		return nil, ErrInvalidPrice
	}
	if !s.ledger.ReserveCheck(cmd.BidderID, cmd.FinalPrice) {
		return nil, fmt.Errorf("%w: remaining %d, final price %d", ErrInsufficientBudget, bidder.Remaining(), cmd.FinalPrice)
	}

	now := time.Now()
	price := cmd.FinalPrice
	winner := cmd.BidderID
	sale := &Sale{
		ID:         uuid.New(),
		AuctionID:  cmd.AuctionID,
		LotID:      lot.ID,
		BidderID:   &winner,
		FinalPrice: &price,
		Status:     SaleStatusSold,
		CreatedAt:  now,
	}
	event, err := newOutboxEvent(EventTypeLotSold, LotSoldEvent{
		AuctionID:  cmd.AuctionID,
		LotID:      lot.ID,
		BidderID:   winner,
		FinalPrice: price,
		SettledAt:  now,
	})
	if err != nil {
		return nil, err
	}

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		if upErr := e.bidders.UpdateSpent(ctx, tx, winner, bidder.Spent+price); upErr != nil {
			return upErr
		}
		if upErr := e.lots.UpdateStatus(ctx, tx, lot.ID, LotStatusSold); upErr != nil {
			return upErr
		}
		if saveErr := e.sales.SaveSale(ctx, tx, sale); saveErr != nil {
			return saveErr
		}
		return e.outbox.SaveEvent(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	// Cannot fail: reserve was checked under this same lock
	_ = s.ledger.Debit(winner, price)
	lot.Status = LotStatusSold
	lot.UpdatedAt = now
	s.sales = append(s.sales, sale)
	s.sold[winner]++
	s.syncRegister()

	e.logger.Info("lot sold", "auction_id", cmd.AuctionID, "lot_id", lot.ID, "bidder_id", winner, "final_price", price)
	return e.publish(s), nil
}

// SettleUnsold settles the active lot as unsold. The auctioneer may void a
// lot with bids in progress or skip one that never drew a bid.
func (e *Engine) SettleUnsold(ctx context.Context, auctionID, lotID, callerID uuid.UUID) (*Snapshot, error) {
	s, err := e.getSession(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.auction.IsOwnedBy(callerID) {
		return nil, ErrNotOwner
	}
	if s.auction.Status != StatusLive {
		return nil, ErrAuctionNotLive
	}

	lot := s.queue.Current()
	if lot == nil || lot.ID != lotID {
		return nil, ErrLotNotActive
	}

	now := time.Now()
	sale := &Sale{
		ID:        uuid.New(),
		AuctionID: auctionID,
		LotID:     lot.ID,
		Status:    SaleStatusUnsold,
		CreatedAt: now,
	}
	event, err := newOutboxEvent(EventTypeLotUnsold, LotUnsoldEvent{
		AuctionID: auctionID,
		LotID:     lot.ID,
		SettledAt: now,
	})
	if err != nil {
		return nil, err
	}

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		if upErr := e.lots.UpdateStatus(ctx, tx, lot.ID, LotStatusUnsold); upErr != nil {
			return upErr
		}
		if saveErr := e.sales.SaveSale(ctx, tx, sale); saveErr != nil {
			return saveErr
		}
		return e.outbox.SaveEvent(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	lot.Status = LotStatusUnsold
	lot.UpdatedAt = now
	s.sales = append(s.sales, sale)
	s.syncRegister()

	e.logger.Info("lot unsold", "auction_id", auctionID, "lot_id", lot.ID)
	return e.publish(s), nil
}

// RequeueUnsold returns unsold lots to the queue for another round,
// invalidating their unsold sale records. With no lot ids given it targets
// every unsold lot. Requeueing nothing is a no-op, not an error; the
// returned count says how many lots actually changed.
func (e *Engine) RequeueUnsold(ctx context.Context, auctionID, callerID uuid.UUID, lotIDs []uuid.UUID) (int, *Snapshot, error) {
	s, err := e.getSession(ctx, auctionID)
	if err != nil {
		return 0, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.auction.IsOwnedBy(callerID) {
		return 0, nil, ErrNotOwner
	}
	switch s.auction.Status {
	case StatusCompleted:
		return 0, nil, ErrAlreadyCompleted
	case StatusLive:
	default:
		return 0, nil, ErrAuctionNotLive
	}

	unsold := make(map[uuid.UUID]bool)
	for _, id := range s.queue.UnsoldIDs() {
		unsold[id] = true
	}
	var targets []uuid.UUID
	if len(lotIDs) == 0 {
		targets = s.queue.UnsoldIDs()
	} else {
		for _, id := range lotIDs {
			if unsold[id] {
				targets = append(targets, id)
			}
		}
	}
	if len(targets) == 0 {
		return 0, s.snap.Load(), nil
	}

	now := time.Now()
	event, err := newOutboxEvent(EventTypeLotsRequeued, LotsRequeuedEvent{
		AuctionID:  auctionID,
		LotIDs:     targets,
		RequeuedAt: now,
	})
	if err != nil {
		return 0, nil, err
	}

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		if upErr := e.lots.UpdateStatuses(ctx, tx, targets, LotStatusReAuction); upErr != nil {
			return upErr
		}
		if delErr := e.sales.DeleteUnsoldByLotIDs(ctx, tx, targets); delErr != nil {
			return delErr
		}
		return e.outbox.SaveEvent(ctx, tx, event)
	})
	if err != nil {
		return 0, nil, err
	}

	changed := s.queue.RequeueForReAuction(targets)
	s.dropUnsoldSales(targets)
	s.syncRegister()

	e.logger.Info("lots requeued", "auction_id", auctionID, "count", len(changed))
	return len(changed), e.publish(s), nil
}

// CompleteAuction ends a live auction. Lots still pending or up for
// re-auction stay untouched: the auctioneer can force an end at any point.
func (e *Engine) CompleteAuction(ctx context.Context, auctionID, callerID uuid.UUID) (*Snapshot, error) {
	s, err := e.getSession(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.auction.IsOwnedBy(callerID) {
		return nil, ErrNotOwner
	}
	switch s.auction.Status {
	case StatusCompleted:
		return nil, ErrAlreadyCompleted
	case StatusLive:
	default:
		return nil, ErrAuctionNotLive
	}

	now := time.Now()
	event, err := newOutboxEvent(EventTypeAuctionCompleted, AuctionCompletedEvent{
		AuctionID:   auctionID,
		CompletedAt: now,
	})
	if err != nil {
		return nil, err
	}

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		if upErr := e.auctions.UpdateStatus(ctx, tx, auctionID, StatusCompleted); upErr != nil {
			return upErr
		}
		return e.outbox.SaveEvent(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.auction.Status = StatusCompleted
	s.auction.UpdatedAt = now
	s.register.Close()

	e.logger.Info("auction completed", "auction_id", auctionID, "lots_left", s.queue.RemainingCount())
	return e.publish(s), nil
}

// ReorderLots rewrites the queue order. Settled lots keep their slot; lots
// not yet reached may move freely, which can change the active lot. The
// register follows the new active lot, keeping any bid history it already has.
func (e *Engine) ReorderLots(ctx context.Context, auctionID, callerID uuid.UUID, order []uuid.UUID) (*Snapshot, error) {
	s, err := e.getSession(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.auction.IsOwnedBy(callerID) {
		return nil, ErrNotOwner
	}
	if s.auction.Status == StatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	if valErr := s.queue.ValidateReorder(order); valErr != nil {
		return nil, valErr
	}

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		return e.lots.UpdateOrder(ctx, tx, auctionID, order)
	})
	if err != nil {
		return nil, err
	}

	// Validated above, cannot fail
	_ = s.queue.Reorder(order)
	if s.auction.Status == StatusLive {
		s.syncRegister()
	}

	e.logger.Info("lots reordered", "auction_id", auctionID)
	return e.publish(s), nil
}

// GetState returns the latest snapshot without entering the serialized path
func (e *Engine) GetState(ctx context.Context, auctionID uuid.UUID) (*Snapshot, error) {
	s, err := e.getSession(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return s.snap.Load(), nil
}

// checkRoster enforces the external roster-size cap for a bidder
func (e *Engine) checkRoster(ctx context.Context, s *session, bidderID uuid.UUID) error {
	maxSize, err := e.roster.MaxRosterSize(ctx, s.auction.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if maxSize > 0 && s.sold[bidderID] >= maxSize {
		return fmt.Errorf("%w: roster is full (%d)", ErrBidderIneligible, maxSize)
	}
	return nil
}

// getSession returns the session for an auction, hydrating it from the
// store on first touch so a process restart does not lose a live auction.
func (e *Engine) getSession(ctx context.Context, auctionID uuid.UUID) (*session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.sessions[auctionID]; ok {
		return s, nil
	}

	a, err := e.auctions.GetAuctionByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	lots, err := e.lots.ListByAuctionID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	bidders, err := e.bidders.ListByAuctionID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	bids, err := e.bids.ListByAuctionID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	sales, err := e.sales.ListByAuctionID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	s := newSession(a, lots, bidders, bids, sales)
	e.publish(s) // not yet reachable, no lock needed
	e.sessions[auctionID] = s

	e.logger.Info("session hydrated", "auction_id", auctionID, "status", a.Status, "lots", len(lots), "bidders", len(bidders))
	return s, nil
}

func newSession(a *Auction, lots []*Lot, bidders []*Bidder, bids []*Bid, sales []*Sale) *session {
	s := &session{
		auction:   a,
		ledger:    NewLedger(bidders),
		queue:     NewLotQueue(lots),
		register:  NewBidRegister(a.BidIncrement),
		bidsByLot: make(map[uuid.UUID][]*Bid),
		sales:     sales,
		sold:      make(map[uuid.UUID]int),
	}
	for _, b := range bids {
		s.bidsByLot[b.LotID] = append(s.bidsByLot[b.LotID], b)
	}
	for _, sale := range sales {
		if sale.Status == SaleStatusSold && sale.BidderID != nil {
			s.sold[*sale.BidderID]++
		}
	}
	if a.Status == StatusLive {
		s.syncRegister()
	}
	return s
}

// syncRegister points the register at the current lot, re-seeding its
// leader from that lot's recorded bids, or closes it when nothing is left.
func (s *session) syncRegister() {
	cur := s.queue.Current()
	if cur == nil {
		s.register.Close()
		return
	}
	s.register.Open(cur, s.bidsByLot[cur.ID])
}

// dropUnsoldSales removes invalidated unsold sale records for requeued lots
func (s *session) dropUnsoldSales(lotIDs []uuid.UUID) {
	drop := make(map[uuid.UUID]bool, len(lotIDs))
	for _, id := range lotIDs {
		drop[id] = true
	}
	kept := s.sales[:0]
	for _, sale := range s.sales {
		if sale.Status == SaleStatusUnsold && drop[sale.LotID] {
			continue
		}
		kept = append(kept, sale)
	}
	s.sales = kept
}

// publish rebuilds the session's snapshot, bumps the version and notifies
// the listener. Must be called with the session lock held (or before the
// session is reachable).
func (e *Engine) publish(s *session) *Snapshot {
	s.version++
	snap := s.buildSnapshot()
	s.snap.Store(snap)
	if e.onSnapshot != nil {
		e.onSnapshot(snap)
	}
	return snap
}

// buildSnapshot copies the session state into an immutable view
func (s *session) buildSnapshot() *Snapshot {
	snap := &Snapshot{
		Version:         s.version,
		AuctionID:       s.auction.ID,
		AuctioneerID:    s.auction.AuctioneerID,
		Status:          s.auction.Status,
		BudgetPerBidder: s.auction.BudgetPerBidder,
		BidIncrement:    s.auction.BidIncrement,
		LotsRemaining:   s.queue.RemainingCount(),
		TakenAt:         time.Now(),
	}

	if s.auction.Status == StatusLive {
		if cur := s.queue.Current(); cur != nil {
			snap.ActiveLot = &LotView{
				ID:          cur.ID,
				ExternalRef: cur.ExternalRef,
				BasePrice:   cur.BasePrice,
				OrderIndex:  cur.OrderIndex,
				Status:      cur.Status,
			}
			snap.RequiredMinimum = s.register.RequiredMinimum(cur)
			if leaderID, amount, ok := s.register.Leader(); ok {
				snap.Leader = &LeaderView{BidderID: leaderID, Amount: amount}
			}
			for _, b := range s.register.Bids() {
				snap.ActiveLotBids = append(snap.ActiveLotBids, BidView{
					ID:        b.ID,
					BidderID:  b.BidderID,
					Amount:    b.Amount,
					CreatedAt: b.CreatedAt,
				})
			}
		}
	}

	for _, b := range s.ledger.Bidders() {
		snap.Bidders = append(snap.Bidders, BidderView{
			ID:        b.ID,
			UserID:    b.UserID,
			Name:      b.Name,
			Budget:    b.Budget,
			Spent:     b.Spent,
			Remaining: b.Remaining(),
		})
	}
	for _, sale := range s.sales {
		snap.Sales = append(snap.Sales, SaleView{
			LotID:      sale.LotID,
			BidderID:   sale.BidderID,
			FinalPrice: sale.FinalPrice,
			Status:     sale.Status,
			CreatedAt:  sale.CreatedAt,
		})
	}
	return snap
}

// inTx runs fn inside one transaction. Any failure on this path is a
// durability failure from the caller's point of view.
func (e *Engine) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := e.txManager.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return nil
}

func newOutboxEvent(eventType string, payload any) (*events.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return &events.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   body,
		Status:    events.OutboxStatusPending,
		CreatedAt: time.Now(),
	}, nil
}
