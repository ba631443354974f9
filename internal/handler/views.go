package handler

import (
	"time"

	"github.com/iliyamo/live-auction/internal/model"
	"github.com/iliyamo/live-auction/internal/service"
)

// AuctionView is the JSON shape of an auction.  Money is rendered as a
// fixed two-decimal string.
type AuctionView struct {
	ID                        uint64     `json:"id"`
	SellerID                  uint64     `json:"seller_id"`
	Title                     string     `json:"title"`
	StartPrice                string     `json:"start_price"`
	MinBidIncrement           string     `json:"min_bid_increment"`
	CurrentPrice              string     `json:"current_price"`
	MinimumNextBid            string     `json:"minimum_next_bid"`
	StartAt                   time.Time  `json:"start_at"`
	EndAt                     time.Time  `json:"end_at"`
	Status                    string     `json:"status"`
	IsPaused                  bool       `json:"is_paused"`
	WinnerID                  *uint64    `json:"winner_id,omitempty"`
	WinnerPaymentDeadline     *time.Time `json:"winner_payment_deadline,omitempty"`
	CompletionStatus          string     `json:"completion_status"`
	ExtensionCount            int        `json:"extension_count"`
	MaxExtensions             int        `json:"max_extensions"`
	AntiSnipeThresholdSeconds int        `json:"anti_snipe_threshold_seconds"`
	AntiSnipeExtensionSeconds int        `json:"anti_snipe_extension_seconds"`
	BidCooldownSeconds        int        `json:"bid_cooldown_seconds"`
}

func auctionView(a *model.Auction) AuctionView {
	return AuctionView{
		ID:                        a.ID,
		SellerID:                  a.SellerID,
		Title:                     a.Title,
		StartPrice:                a.StartPrice.StringFixed(2),
		MinBidIncrement:           a.MinBidIncrement.StringFixed(2),
		CurrentPrice:              a.CurrentPrice.StringFixed(2),
		MinimumNextBid:            a.MinimumNextBid().StringFixed(2),
		StartAt:                   a.StartAt,
		EndAt:                     a.EndAt,
		Status:                    string(a.Status),
		IsPaused:                  a.IsPaused,
		WinnerID:                  a.WinnerID,
		WinnerPaymentDeadline:     a.WinnerPaymentDeadline,
		CompletionStatus:          string(a.CompletionStatus),
		ExtensionCount:            a.ExtensionCount,
		MaxExtensions:             a.MaxExtensions,
		AntiSnipeThresholdSeconds: a.AntiSnipeThresholdSeconds,
		AntiSnipeExtensionSeconds: a.AntiSnipeExtensionSeconds,
		BidCooldownSeconds:        a.BidCooldownSeconds,
	}
}

// BidView is a bid in list and placement responses.
type BidView struct {
	ID        uint64    `json:"id"`
	AuctionID uint64    `json:"auction_id"`
	UserID    uint64    `json:"user_id"`
	Amount    string    `json:"amount"`
	IsValid   bool      `json:"is_valid"`
	CreatedAt time.Time `json:"created_at"`
}

func bidView(b model.Bid) BidView {
	return BidView{
		ID:        b.ID,
		AuctionID: b.AuctionID,
		UserID:    b.UserID,
		Amount:    b.Amount.StringFixed(2),
		IsValid:   b.IsValid,
		CreatedAt: b.CreatedAt,
	}
}

// OfferView is a waterfall offer.
type OfferView struct {
	ID          uint64     `json:"id"`
	AuctionID   uint64     `json:"auction_id"`
	UserID      uint64     `json:"user_id"`
	BidAmount   string     `json:"bid_amount"`
	OfferRank   int        `json:"offer_rank"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

func offerView(o *model.Offer) OfferView {
	return OfferView{
		ID:          o.ID,
		AuctionID:   o.AuctionID,
		UserID:      o.UserID,
		BidAmount:   o.BidAmount.StringFixed(2),
		OfferRank:   o.OfferRank,
		Status:      string(o.Status),
		ExpiresAt:   o.ExpiresAt,
		RespondedAt: o.RespondedAt,
	}
}

// SettlementView reports the settlement state after an offer response or a
// payment confirmation.
type SettlementView struct {
	AuctionID        uint64     `json:"auction_id"`
	CompletionStatus string     `json:"completion_status"`
	WinnerID         *uint64    `json:"winner_id,omitempty"`
	PaymentDeadline  *time.Time `json:"payment_deadline,omitempty"`
	NextOffer        *OfferView `json:"next_offer,omitempty"`
}

func settlementView(s *service.Settlement) SettlementView {
	v := SettlementView{
		AuctionID:        s.AuctionID,
		CompletionStatus: string(s.CompletionStatus),
		WinnerID:         s.WinnerID,
		PaymentDeadline:  s.PaymentDeadline,
	}
	if s.Offer != nil {
		o := offerView(s.Offer)
		v.NextOffer = &o
	}
	return v
}
