package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid is one entry of the append-only bid ledger.  Only IsValid ever
// changes after insert, when the bidder is revoked.
type Bid struct {
	ID        uint64          // bids.id
	AuctionID uint64          // bids.auction_id
	UserID    uint64          // bids.user_id
	Amount    decimal.Decimal // bids.amount
	IsValid   bool            // bids.is_valid
	CreatedAt time.Time       // bids.created_at
}
