package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hammerd/hammerd/internal/domain/auction"
	"github.com/hammerd/hammerd/pkg/auth"
)

// EligibilityStore is the registration-side surface of the eligibility list:
// the auctioneer uploads the ordered player list before going live.
type EligibilityStore interface {
	ReplaceEntries(ctx context.Context, auctionID uuid.UUID, entries []auction.EligibleLot) error
}

// Handler exposes the auction engine as a JSON HTTP API
type Handler struct {
	engine      *auction.Engine
	bidRepo     auction.BidRepository
	eligibility EligibilityStore
	logger      *slog.Logger
}

// NewHandler creates a new auction API handler
func NewHandler(engine *auction.Engine, bidRepo auction.BidRepository, eligibility EligibilityStore, logger *slog.Logger) *Handler {
	return &Handler{
		engine:      engine,
		bidRepo:     bidRepo,
		eligibility: eligibility,
		logger:      logger,
	}
}

// Register mounts every route on the given mux. Auth middleware is applied
// at the router level, so handlers may assume a validated token.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/auctions", h.CreateAuction)
	mux.HandleFunc("GET /v1/auctions/{id}", h.GetAuction)
	mux.HandleFunc("POST /v1/auctions/{id}/eligibility", h.ReplaceEligibility)
	mux.HandleFunc("POST /v1/auctions/{id}/bidders", h.RegisterBidder)
	mux.HandleFunc("POST /v1/auctions/{id}/start", h.StartAuction)
	mux.HandleFunc("POST /v1/auctions/{id}/bids", h.PlaceBid)
	mux.HandleFunc("POST /v1/auctions/{id}/lots/{lotID}/sold", h.SettleSold)
	mux.HandleFunc("POST /v1/auctions/{id}/lots/{lotID}/unsold", h.SettleUnsold)
	mux.HandleFunc("POST /v1/auctions/{id}/requeue", h.RequeueUnsold)
	mux.HandleFunc("POST /v1/auctions/{id}/order", h.ReorderLots)
	mux.HandleFunc("POST /v1/auctions/{id}/complete", h.CompleteAuction)
	mux.HandleFunc("GET /v1/lots/{id}/bids", h.GetLotBids)
}

type createAuctionRequest struct {
	BudgetPerBidder int64 `json:"budget_per_bidder"`
	BidIncrement    int64 `json:"bid_increment"`
}

func (h *Handler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req createAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	snap, err := h.engine.CreateAuction(r.Context(), auction.CreateAuctionCommand{
		AuctioneerID:    callerID,
		BudgetPerBidder: req.BudgetPerBidder,
		BidIncrement:    req.BidIncrement,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) GetAuction(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	snap, err := h.engine.GetState(r.Context(), auctionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

type eligibilityEntry struct {
	ExternalRef string `json:"external_ref"`
	BasePrice   int64  `json:"base_price"`
}

type replaceEligibilityRequest struct {
	Entries []eligibilityEntry `json:"entries"`
}

// ReplaceEligibility rewrites the ordered player list the auction is seeded
// from at go-live. Rejected once the auction has left the published state.
func (h *Handler) ReplaceEligibility(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	auctionID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req replaceEligibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	snap, err := h.engine.GetState(r.Context(), auctionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if snap.AuctioneerID != callerID {
		h.respondError(w, r, auction.ErrNotOwner)
		return
	}
	if snap.Status != auction.StatusPublished {
		h.respondError(w, r, auction.ErrAuctionLive)
		return
	}

	entries := make([]auction.EligibleLot, len(req.Entries))
	for i, e := range req.Entries {
		if e.ExternalRef == "" || e.BasePrice <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid_entry", "entries need an external_ref and a positive base_price")
			return
		}
		entries[i] = auction.EligibleLot{ExternalRef: e.ExternalRef, BasePrice: e.BasePrice}
	}

	if err := h.eligibility.ReplaceEntries(r.Context(), auctionID, entries); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"count": len(entries)})
}

type registerBidderRequest struct {
	Name   string `json:"name"`
	UserID string `json:"user_id"`
}

func (h *Handler) RegisterBidder(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	auctionID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req registerBidderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	// A bidder registers themselves unless an explicit user_id is given
	// (auctioneer enrolling a team on their behalf).
	userID := callerID
	if req.UserID != "" {
		parsed, err := uuid.Parse(req.UserID)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_user_id", "invalid user_id")
			return
		}
		userID = parsed
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_name", "name is required")
		return
	}

	snap, err := h.engine.RegisterBidder(r.Context(), auction.RegisterBidderCommand{
		AuctionID: auctionID,
		UserID:    userID,
		Name:      req.Name,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) StartAuction(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	auctionID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	snap, err := h.engine.StartAuction(r.Context(), auctionID, callerID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

type placeBidRequest struct {
	LotID    string `json:"lot_id"`
	BidderID string `json:"bidder_id"`
	Amount   int64  `json:"amount"`
}

func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	auctionID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	lotID, err := uuid.Parse(req.LotID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_lot_id", "invalid lot_id")
		return
	}
	bidderID, err := uuid.Parse(req.BidderID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_bidder_id", "invalid bidder_id")
		return
	}

	snap, err := h.engine.PlaceBid(r.Context(), auction.PlaceBidCommand{
		AuctionID: auctionID,
		LotID:     lotID,
		BidderID:  bidderID,
		CallerID:  callerID,
		Amount:    req.Amount,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

type settleSoldRequest struct {
	BidderID   string `json:"bidder_id"`
	FinalPrice int64  `json:"final_price"`
}

func (h *Handler) SettleSold(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	auctionID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	lotID, ok := h.pathUUID(w, r, "lotID")
	if !ok {
		return
	}

	var req settleSoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	bidderID, err := uuid.Parse(req.BidderID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_bidder_id", "invalid bidder_id")
		return
	}

	snap, err := h.engine.SettleSold(r.Context(), auction.SettleSoldCommand{
		AuctionID:  auctionID,
		LotID:      lotID,
		BidderID:   bidderID,
		FinalPrice: req.FinalPrice,
		CallerID:   callerID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) SettleUnsold(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	auctionID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	lotID, ok := h.pathUUID(w, r, "lotID")
	if !ok {
		return
	}

	snap, err := h.engine.SettleUnsold(r.Context(), auctionID, lotID, callerID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

type requeueRequest struct {
	LotIDs []string `json:"lot_ids"`
}

type requeueResponse struct {
	Requeued int               `json:"requeued"`
	State    *auction.Snapshot `json:"state"`
}

func (h *Handler) RequeueUnsold(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	auctionID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	// An empty body requeues every unsold lot.
	var req requeueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	lotIDs := make([]uuid.UUID, 0, len(req.LotIDs))
	for _, raw := range req.LotIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_lot_id", "invalid lot id: "+raw)
			return
		}
		lotIDs = append(lotIDs, id)
	}

	count, snap, err := h.engine.RequeueUnsold(r.Context(), auctionID, callerID, lotIDs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, requeueResponse{Requeued: count, State: snap})
}

type reorderRequest struct {
	Order []string `json:"order"`
}

func (h *Handler) ReorderLots(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	auctionID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	order := make([]uuid.UUID, 0, len(req.Order))
	for _, raw := range req.Order {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_lot_id", "invalid lot id: "+raw)
			return
		}
		order = append(order, id)
	}

	snap, err := h.engine.ReorderLots(r.Context(), auctionID, callerID, order)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) CompleteAuction(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	auctionID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	snap, err := h.engine.CompleteAuction(r.Context(), auctionID, callerID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

type bidResponse struct {
	ID        string `json:"id"`
	LotID     string `json:"lot_id"`
	BidderID  string `json:"bidder_id"`
	Amount    int64  `json:"amount"`
	CreatedAt string `json:"created_at"`
}

func (h *Handler) GetLotBids(w http.ResponseWriter, r *http.Request) {
	lotID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	bids, err := h.bidRepo.ListByLotID(r.Context(), lotID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	out := make([]bidResponse, len(bids))
	for i, b := range bids {
		out[i] = bidResponse{
			ID:        b.ID.String(),
			LotID:     b.LotID.String(),
			BidderID:  b.BidderID.String(),
			Amount:    b.Amount,
			CreatedAt: b.CreatedAt.Format(time.RFC3339),
		}
	}
	h.writeJSON(w, http.StatusOK, map[string][]bidResponse{"bids": out})
}

func (h *Handler) callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, found := auth.GetUserID(r.Context())
	if !found {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated", "missing credentials")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid subject in token")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_id", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps domain errors onto HTTP status codes. Unknown errors are
// logged and returned as opaque 500s.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auction.ErrInvalidBudget),
		errors.Is(err, auction.ErrInvalidIncrement),
		errors.Is(err, auction.ErrInvalidPrice):
		h.writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, auction.ErrNotOwner),
		errors.Is(err, auction.ErrNotBidder):
		h.writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, auction.ErrAuctionNotFound):
		h.writeError(w, http.StatusNotFound, "auction_not_found", err.Error())
	case errors.Is(err, auction.ErrLotNotFound):
		h.writeError(w, http.StatusNotFound, "lot_not_found", err.Error())
	case errors.Is(err, auction.ErrBidderNotFound):
		h.writeError(w, http.StatusNotFound, "bidder_not_found", err.Error())
	case errors.Is(err, auction.ErrAuctionNotLive):
		h.writeError(w, http.StatusConflict, "auction_not_live", err.Error())
	case errors.Is(err, auction.ErrAuctionLive):
		h.writeError(w, http.StatusConflict, "auction_live", err.Error())
	case errors.Is(err, auction.ErrAlreadyCompleted):
		h.writeError(w, http.StatusConflict, "auction_completed", err.Error())
	case errors.Is(err, auction.ErrLotNotActive):
		h.writeError(w, http.StatusConflict, "lot_not_active", err.Error())
	case errors.Is(err, auction.ErrBidTooLow):
		h.writeError(w, http.StatusConflict, "bid_too_low", err.Error())
	case errors.Is(err, auction.ErrInsufficientBudget):
		h.writeError(w, http.StatusConflict, "insufficient_budget", err.Error())
	case errors.Is(err, auction.ErrBidderIneligible):
		h.writeError(w, http.StatusConflict, "bidder_ineligible", err.Error())
	case errors.Is(err, auction.ErrNoBidders),
		errors.Is(err, auction.ErrNoLots):
		h.writeError(w, http.StatusConflict, "precondition_failed", err.Error())
	case errors.Is(err, auction.ErrEngineUnavailable):
		h.logger.Error("engine unavailable", "error", err, "path", r.URL.Path)
		h.writeError(w, http.StatusServiceUnavailable, "unavailable", "temporarily unavailable")
	default:
		h.logger.Error("unhandled error", "error", err, "path", r.URL.Path)
		h.writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
