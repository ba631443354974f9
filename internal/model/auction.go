package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
)

// AuctionStatus is the lifecycle state of an auction.
type AuctionStatus string

const (
	AuctionDraft     AuctionStatus = "DRAFT"
	AuctionActive    AuctionStatus = "ACTIVE"
	AuctionEnded     AuctionStatus = "ENDED"
	AuctionCancelled AuctionStatus = "CANCELLED"
)

// CompletionStatus is the settlement sub-state of an auction.  It is
// distinct from AuctionStatus and keeps changing after the auction ended
// while the offer waterfall runs.
type CompletionStatus string

const (
	CompletionPending CompletionStatus = "PENDING"
	CompletionPaid    CompletionStatus = "PAID"
	CompletionFailed  CompletionStatus = "FAILED"
)

// Auction is the aggregate guarded by the bid lock and the row lock.  The
// methods below are the only places that mutate it, so the invariants hold
// no matter which operation loaded the row:
//
//   - CurrentPrice >= StartPrice
//   - EndAt only moves forward
//   - once ENDED or CANCELLED, price and winner are frozen; only the
//     completion fields may change through the settlement waterfall
type Auction struct {
	ID                        uint64           // auctions.id
	SellerID                  uint64           // auctions.seller_id
	Title                     string           // auctions.title
	StartPrice                decimal.Decimal  // auctions.start_price
	MinBidIncrement           decimal.Decimal  // auctions.min_bid_increment
	CurrentPrice              decimal.Decimal  // auctions.current_price
	StartAt                   time.Time        // auctions.start_at
	EndAt                     time.Time        // auctions.end_at
	Status                    AuctionStatus    // auctions.status
	IsPaused                  bool             // auctions.is_paused
	WinnerID                  *uint64          // auctions.winner_id (nullable)
	WinnerPaymentDeadline     *time.Time       // auctions.winner_payment_deadline (nullable)
	CompletionStatus          CompletionStatus // auctions.completion_status
	ExtensionCount            int              // auctions.extension_count
	MaxExtensions             int              // auctions.max_extensions
	AntiSnipeThresholdSeconds int              // auctions.anti_snipe_threshold_seconds
	AntiSnipeExtensionSeconds int              // auctions.anti_snipe_extension_seconds
	BidCooldownSeconds        int              // auctions.bid_cooldown_seconds
	CreatedAt                 time.Time        // auctions.created_at
	UpdatedAt                 time.Time        // auctions.updated_at
}

// IsTerminal reports whether the auction reached ENDED or CANCELLED.
func (a *Auction) IsTerminal() bool {
	return a.Status == AuctionEnded || a.Status == AuctionCancelled
}

// MinimumNextBid is the smallest amount the next bid may carry.
func (a *Auction) MinimumNextBid() decimal.Decimal {
	return a.CurrentPrice.Add(a.MinBidIncrement)
}

// CheckAcceptingBids validates state, bid window, pause flag and bidder
// identity, in that order.  The window is inclusive on both ends.
func (a *Auction) CheckAcceptingBids(now time.Time, bidderID uint64) error {
	if a.Status != AuctionActive {
		return auctionerrors.ErrAuctionNotActive
	}
	if now.Before(a.StartAt) || now.After(a.EndAt) {
		return auctionerrors.ErrOutsideBidWindow
	}
	if a.IsPaused {
		return auctionerrors.ErrAuctionPaused
	}
	if bidderID == a.SellerID {
		return auctionerrors.ErrSellerCannotBid
	}
	return nil
}

// maxMoney is the largest value a DECIMAL(14,2) column holds.
var maxMoney = decimal.RequireFromString("999999999999.99")

// ValidMoney reports whether v is positive, has at most two decimal places
// and fits the money columns.
func ValidMoney(v decimal.Decimal) bool {
	return v.IsPositive() && v.Equal(v.Truncate(2)) && v.LessThanOrEqual(maxMoney)
}

// CheckAmount rejects amounts below CurrentPrice + MinBidIncrement.  An
// amount equal to the minimum is accepted.
func (a *Auction) CheckAmount(amount decimal.Decimal) error {
	if !ValidMoney(amount) {
		return auctionerrors.ErrInvalidAmount
	}
	if min := a.MinimumNextBid(); amount.LessThan(min) {
		return &auctionerrors.BidTooLowError{Minimum: min}
	}
	return nil
}

// ApplyBid moves the price to amount and runs the anti-snipe rule.  It
// reports whether EndAt was pushed.  Callers must have run CheckAmount and
// CheckAcceptingBids first.
func (a *Auction) ApplyBid(amount decimal.Decimal, now time.Time) bool {
	a.CurrentPrice = amount
	remaining := a.EndAt.Sub(now)
	threshold := time.Duration(a.AntiSnipeThresholdSeconds) * time.Second
	if remaining <= 0 || remaining > threshold {
		return false
	}
	if a.ExtensionCount >= a.MaxExtensions || a.AntiSnipeExtensionSeconds <= 0 {
		return false
	}
	a.EndAt = a.EndAt.Add(time.Duration(a.AntiSnipeExtensionSeconds) * time.Second)
	a.ExtensionCount++
	return true
}

// Publish moves a draft to ACTIVE.  It needs at least one asset and an end
// time in the future that is after the start time.
func (a *Auction) Publish(now time.Time, assetCount int) error {
	if a.Status != AuctionDraft {
		return auctionerrors.ErrInvalidTransition
	}
	if assetCount < 1 {
		return fmt.Errorf("%w: at least one asset is required", auctionerrors.ErrPublishRequirement)
	}
	if !a.EndAt.After(now) {
		return fmt.Errorf("%w: end time must be in the future", auctionerrors.ErrPublishRequirement)
	}
	if !a.EndAt.After(a.StartAt) {
		return fmt.Errorf("%w: end time must be after start time", auctionerrors.ErrPublishRequirement)
	}
	a.Status = AuctionActive
	a.IsPaused = false
	a.CurrentPrice = a.StartPrice
	return nil
}

// SetPaused toggles the pause flag.  Only an ACTIVE auction can be paused
// or resumed, and toggling to the current value is rejected.
func (a *Auction) SetPaused(paused bool) error {
	if a.Status != AuctionActive || a.IsPaused == paused {
		return auctionerrors.ErrInvalidTransition
	}
	a.IsPaused = paused
	return nil
}

// Cancel moves a DRAFT or ACTIVE auction to CANCELLED.
func (a *Auction) Cancel() error {
	if a.Status != AuctionDraft && a.Status != AuctionActive {
		return auctionerrors.ErrInvalidTransition
	}
	a.Status = AuctionCancelled
	a.IsPaused = false
	return nil
}

// EndWithWinner closes the auction and names the winner with a payment
// deadline.
func (a *Auction) EndWithWinner(winnerID uint64, deadline time.Time) {
	a.Status = AuctionEnded
	a.IsPaused = false
	a.AssignWinner(winnerID, deadline)
}

// EndWithoutWinner closes an auction that received no valid bids.
func (a *Auction) EndWithoutWinner() {
	a.Status = AuctionEnded
	a.IsPaused = false
	a.WinnerID = nil
	a.WinnerPaymentDeadline = nil
	a.CompletionStatus = CompletionFailed
}

// AssignWinner sets a (new) pending winner.  Used when the auction ends and
// when a waterfall offer is accepted.
func (a *Auction) AssignWinner(userID uint64, deadline time.Time) {
	uid := userID
	d := deadline
	a.WinnerID = &uid
	a.WinnerPaymentDeadline = &d
	a.CompletionStatus = CompletionPending
}

// FailSettlement marks settlement as failed and clears the winner fields.
func (a *Auction) FailSettlement() {
	a.WinnerID = nil
	a.WinnerPaymentDeadline = nil
	a.CompletionStatus = CompletionFailed
}

// OpenWaterfall clears the lapsed winner while an offer is outstanding.
// Settlement stays PENDING until the offer is answered.
func (a *Auction) OpenWaterfall() {
	a.WinnerID = nil
	a.WinnerPaymentDeadline = nil
	a.CompletionStatus = CompletionPending
}

// MarkPaid records that the pending winner paid.
func (a *Auction) MarkPaid() {
	a.CompletionStatus = CompletionPaid
}

// PaymentOverdue reports whether a declared winner's deadline has passed
// while settlement is still pending.
func (a *Auction) PaymentOverdue(now time.Time) bool {
	return a.Status == AuctionEnded &&
		a.CompletionStatus == CompletionPending &&
		a.WinnerID != nil &&
		a.WinnerPaymentDeadline != nil &&
		!a.WinnerPaymentDeadline.After(now)
}

// RecomputePrice sets CurrentPrice to the highest remaining valid bid, or
// back to StartPrice when none remain.  It reports whether the price moved.
func (a *Auction) RecomputePrice(highest *decimal.Decimal) bool {
	next := a.StartPrice
	if highest != nil && highest.GreaterThan(a.StartPrice) {
		next = *highest
	}
	if next.Equal(a.CurrentPrice) {
		return false
	}
	a.CurrentPrice = next
	return true
}
