// Package auctionerrors holds the error taxonomy shared by the engine and
// its transports.  Every sentinel belongs to one Kind; Classify lets the
// HTTP layer choose a status code without knowing individual errors.
package auctionerrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind groups errors by how the caller should react.
type Kind int

const (
	KindInternal   Kind = iota // infrastructure failure, surfaced as-is
	KindValidation             // bad input or wrong state; never retried automatically
	KindContention             // lock not acquired; caller may retry
	KindNotFound               // missing auction, offer or participant
	KindForbidden              // wrong actor for the operation
	KindRateLimited            // bid cooldown still running
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindContention:
		return "contention"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Not-found errors
var (
	ErrAuctionNotFound     = errors.New("auction not found")
	ErrOfferNotFound       = errors.New("offer not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrPaymentNotFound     = errors.New("payment not found")
)

// Authorization errors
var (
	ErrNotSeller        = errors.New("only the seller may perform this action")
	ErrNotParticipant   = errors.New("user is not a participant of this auction")
	ErrUserRevoked      = errors.New("user has been revoked from this auction")
	ErrSellerCannotBid  = errors.New("seller cannot bid on own auction")
	ErrNotOfferOwner    = errors.New("offer belongs to another user")
	ErrNotPaymentHolder = errors.New("user is not the pending winner")
)

// Contention errors
var (
	ErrLockContended = errors.New("auction is busy, retry")
)

// Validation errors
var (
	ErrInvalidAuction     = errors.New("invalid auction parameters")
	ErrInvalidAmount      = errors.New("invalid bid amount")
	ErrAuctionNotActive   = errors.New("auction is not active")
	ErrAuctionPaused      = errors.New("auction is paused")
	ErrOutsideBidWindow   = errors.New("auction is not accepting bids at this time")
	ErrBidTooLow          = errors.New("bid amount too low")
	ErrBidCooldown        = errors.New("bid cooldown in effect")
	ErrInvalidTransition  = errors.New("invalid auction state transition")
	ErrPublishRequirement = errors.New("auction cannot be published")
	ErrOfferNotPending    = errors.New("offer is no longer pending")
	ErrOfferExpired       = errors.New("offer has expired")
	ErrInvalidResponse    = errors.New("offer response must be ACCEPT or DECLINE")
)

var kinds = map[error]Kind{
	ErrAuctionNotFound:     KindNotFound,
	ErrOfferNotFound:       KindNotFound,
	ErrParticipantNotFound: KindNotFound,
	ErrPaymentNotFound:     KindNotFound,
	ErrNotSeller:           KindForbidden,
	ErrNotParticipant:      KindForbidden,
	ErrUserRevoked:         KindForbidden,
	ErrSellerCannotBid:     KindForbidden,
	ErrNotOfferOwner:       KindForbidden,
	ErrNotPaymentHolder:    KindForbidden,
	ErrLockContended:       KindContention,
	ErrBidCooldown:         KindRateLimited,
	ErrInvalidAuction:      KindValidation,
	ErrInvalidAmount:       KindValidation,
	ErrAuctionNotActive:    KindValidation,
	ErrAuctionPaused:       KindValidation,
	ErrOutsideBidWindow:    KindValidation,
	ErrBidTooLow:           KindValidation,
	ErrInvalidTransition:   KindValidation,
	ErrPublishRequirement:  KindValidation,
	ErrOfferNotPending:     KindValidation,
	ErrOfferExpired:        KindValidation,
	ErrInvalidResponse:     KindValidation,
}

// Classify returns the Kind of the first known sentinel in err's chain.
// Unknown errors are KindInternal.
func Classify(err error) Kind {
	if err == nil {
		return KindInternal
	}
	for sentinel, kind := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}

// CooldownError reports how long a bidder must wait before bidding again.
type CooldownError struct {
	RemainingSeconds int64
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: wait %d seconds", ErrBidCooldown, e.RemainingSeconds)
}

func (e *CooldownError) Unwrap() error { return ErrBidCooldown }

// BidTooLowError carries the smallest amount the auction would accept.
type BidTooLowError struct {
	Minimum decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("%s: must be at least %s", ErrBidTooLow, e.Minimum.StringFixed(2))
}

func (e *BidTooLowError) Unwrap() error { return ErrBidTooLow }
