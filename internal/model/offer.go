package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferStatus is the state of a waterfall offer.
type OfferStatus string

const (
	OfferPending  OfferStatus = "PENDING"
	OfferAccepted OfferStatus = "ACCEPTED"
	OfferDeclined OfferStatus = "DECLINED"
	OfferExpired  OfferStatus = "EXPIRED"
)

// Offer hands the win to a lower-ranked bidder after the previous holder
// failed to pay or declined.  Rank 1 is the original winner and never has
// an Offer row, so ranks start at 2.
type Offer struct {
	ID          uint64          // auction_offers.id
	AuctionID   uint64          // auction_offers.auction_id
	UserID      uint64          // auction_offers.user_id
	BidAmount   decimal.Decimal // auction_offers.bid_amount
	OfferRank   int             // auction_offers.offer_rank
	Status      OfferStatus     // auction_offers.status
	ExpiresAt   time.Time       // auction_offers.expires_at
	RespondedAt *time.Time      // auction_offers.responded_at (nullable)
	CreatedAt   time.Time       // auction_offers.created_at
}

// IsExpired reports whether the response window closed.
func (o *Offer) IsExpired(now time.Time) bool { return !now.Before(o.ExpiresAt) }

// Closed reports whether the holder gave the offer up, by declining or by
// letting it lapse.  Such users are never offered the auction again.
func (o *Offer) Closed() bool {
	return o.Status == OfferDeclined || o.Status == OfferExpired
}
