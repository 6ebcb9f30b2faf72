package auction

import "fmt"

// All expected failure outcomes. Adapters translate these with errors.Is;
// anything else that escapes the engine is a durability failure and surfaces
// as ErrEngineUnavailable.
var (
	ErrAuctionNotFound    = fmt.Errorf("auction not found")
	ErrAuctionNotLive     = fmt.Errorf("auction is not live")
	ErrAuctionLive        = fmt.Errorf("auction is live")
	ErrAlreadyCompleted   = fmt.Errorf("auction is already completed")
	ErrNotOwner           = fmt.Errorf("caller is not the auctioneer for this auction")
	ErrNotBidder          = fmt.Errorf("caller does not own this bidder")
	ErrLotNotFound        = fmt.Errorf("lot not found")
	ErrLotNotActive       = fmt.Errorf("lot is not the active lot")
	ErrBidTooLow          = fmt.Errorf("bid is below the required minimum")
	ErrInsufficientBudget = fmt.Errorf("insufficient budget")
	ErrBidderIneligible   = fmt.Errorf("bidder is not eligible to bid")
	ErrBidderNotFound     = fmt.Errorf("bidder not found")
	ErrNoBidders          = fmt.Errorf("auction has no registered bidders")
	ErrNoLots             = fmt.Errorf("auction has no eligible lots")
	ErrInvalidBudget      = fmt.Errorf("budget per bidder must be positive")
	ErrInvalidPrice       = fmt.Errorf("price must be positive")
	ErrInvalidIncrement   = fmt.Errorf("bid increment must be positive")
	ErrEngineUnavailable  = fmt.Errorf("auction engine unavailable")
)
