package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/live-auction/internal/model"
)

// rankedBidder is one row of the settlement ranking: a bidder and their
// best valid bid.
type rankedBidder struct {
	UserID uint64
	Amount decimal.Decimal
	BidID  uint64
}

// rankBidders keeps the highest valid bid of each user and orders users by
// that amount, highest first.  Equal amounts go to the earlier bid, the
// same tie-break that picks the winner when the auction ends, so rank 1 is
// always the original winner.
func rankBidders(bids []model.Bid) []rankedBidder {
	best := make(map[uint64]rankedBidder, len(bids))
	for _, b := range bids {
		if !b.IsValid {
			continue
		}
		cur, ok := best[b.UserID]
		if !ok || b.Amount.GreaterThan(cur.Amount) || (b.Amount.Equal(cur.Amount) && b.ID < cur.BidID) {
			best[b.UserID] = rankedBidder{UserID: b.UserID, Amount: b.Amount, BidID: b.ID}
		}
	}
	ranked := make([]rankedBidder, 0, len(best))
	for _, r := range best {
		ranked = append(ranked, r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Amount.Equal(ranked[j].Amount) {
			return ranked[i].Amount.GreaterThan(ranked[j].Amount)
		}
		return ranked[i].BidID < ranked[j].BidID
	})
	return ranked
}

// nextCandidate returns the best ranked bidder after rank 1 who is not in
// excluded.
func nextCandidate(ranked []rankedBidder, excluded map[uint64]bool) (rankedBidder, bool) {
	for i, r := range ranked {
		if i == 0 || excluded[r.UserID] {
			continue
		}
		return r, true
	}
	return rankedBidder{}, false
}
