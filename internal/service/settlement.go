package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
	"github.com/iliyamo/live-auction/internal/metrics"
	"github.com/iliyamo/live-auction/internal/model"
)

// Critical user audit values written when a winner misses the deadline.
const (
	reasonPaymentDeadlineMissed = "PAYMENT_DEADLINE_MISSED"
)

// settlementEvent is one of the triggers of the waterfall.  Every trigger
// goes through settle so that rank order and the exclusion list are
// enforced in one place.
type settlementEvent interface {
	isSettlementEvent()
}

type (
	// the declared winner let the payment deadline pass
	paymentExpired struct{}
	// the holder of a pending offer accepted it
	offerAccepted struct{ offer *model.Offer }
	// the holder of a pending offer declined it, or let it lapse
	offerDeclined struct {
		offer   *model.Offer
		expired bool
	}
	// the payment adapter reported a successful payment
	paymentConfirmed struct{ userID uint64 }
)

func (paymentExpired) isSettlementEvent()   {}
func (offerAccepted) isSettlementEvent()    {}
func (offerDeclined) isSettlementEvent()    {}
func (paymentConfirmed) isSettlementEvent() {}

// Settlement is the auction's settlement state after one waterfall step.
type Settlement struct {
	AuctionID        uint64
	Noop             bool
	CompletionStatus model.CompletionStatus
	WinnerID         *uint64
	PaymentDeadline  *time.Time
	Offer            *model.Offer // offer created by this step
}

// settle applies ev to the locked auction a and persists the result.  The
// caller owns the transaction and emits t after commit.
func (s *AuctionService) settle(ctx context.Context, tx *sql.Tx, a *model.Auction, ev settlementEvent, now time.Time, t *trail) (*Settlement, error) {
	res := &Settlement{AuctionID: a.ID}
	var err error
	switch ev := ev.(type) {
	case paymentExpired:
		if a.WinnerID == nil || !a.PaymentOverdue(now) {
			res.Noop = true
		} else {
			err = s.expirePayment(ctx, tx, a, now, t, res)
		}
	case offerAccepted:
		err = s.acceptOffer(ctx, tx, a, ev.offer, now, t)
	case offerDeclined:
		err = s.declineOffer(ctx, tx, a, ev.offer, ev.expired, now, t, res)
	case paymentConfirmed:
		err = s.confirmPayment(ctx, tx, a, ev.userID, now, t)
	}
	if err != nil {
		return nil, err
	}
	if !res.Noop {
		a.UpdatedAt = now
		if err := s.d.Auctions.UpdateTx(ctx, tx, a); err != nil {
			return nil, wrap("update auction", err)
		}
	}
	res.CompletionStatus = a.CompletionStatus
	res.WinnerID = a.WinnerID
	res.PaymentDeadline = a.WinnerPaymentDeadline
	return res, nil
}

func (s *AuctionService) expirePayment(ctx context.Context, tx *sql.Tx, a *model.Auction, now time.Time, t *trail, res *Settlement) error {
	winner := *a.WinnerID
	if _, err := s.d.Payments.FailPendingTx(ctx, tx, a.ID, winner, now); err != nil {
		return wrap("fail payment", err)
	}
	entry := &model.CriticalUserLog{
		UserID:    winner,
		AuctionID: a.ID,
		Reason:    reasonPaymentDeadlineMissed,
		Severity:  model.SeverityHigh,
		CreatedAt: now,
	}
	if err := s.d.Users.MarkCriticalTx(ctx, tx, entry); err != nil {
		return wrap("mark critical user", err)
	}
	t.add(a.ID, model.ActivityPaymentExpired, SystemActor, "winner missed the payment deadline", map[string]any{
		"user_id": winner,
	})
	return s.offerNext(ctx, tx, a, now, t, res)
}

func (s *AuctionService) acceptOffer(ctx context.Context, tx *sql.Tx, a *model.Auction, o *model.Offer, now time.Time, t *trail) error {
	if err := s.d.Offers.UpdateStatusTx(ctx, tx, o.ID, model.OfferAccepted, now); err != nil {
		return wrap("accept offer", err)
	}
	deadline := now.Add(s.cfg.PaymentWindow)
	a.AssignWinner(o.UserID, deadline)
	p := &model.Payment{
		AuctionID: a.ID,
		UserID:    o.UserID,
		Amount:    o.BidAmount,
		Status:    model.PaymentPending,
		DueAt:     deadline,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.d.Payments.CreateTx(ctx, tx, p); err != nil {
		return wrap("create payment", err)
	}
	metrics.Measures.Offers.WithLabelValues(string(model.OfferAccepted)).Inc()
	t.add(a.ID, model.ActivityOfferAccepted, o.UserID, "offer accepted", map[string]any{
		"offer_id":         o.ID,
		"rank":             o.OfferRank,
		"amount":           o.BidAmount.StringFixed(2),
		"payment_deadline": deadline,
	})
	return nil
}

func (s *AuctionService) declineOffer(ctx context.Context, tx *sql.Tx, a *model.Auction, o *model.Offer, expired bool, now time.Time, t *trail, res *Settlement) error {
	status, typ, desc := model.OfferDeclined, model.ActivityOfferDeclined, "offer declined"
	if expired {
		status, typ, desc = model.OfferExpired, model.ActivityOfferExpired, "offer expired"
	}
	if err := s.d.Offers.UpdateStatusTx(ctx, tx, o.ID, status, now); err != nil {
		return wrap("close offer", err)
	}
	metrics.Measures.Offers.WithLabelValues(string(status)).Inc()
	actor := o.UserID
	if expired {
		actor = SystemActor
	}
	t.add(a.ID, typ, actor, desc, map[string]any{"offer_id": o.ID, "rank": o.OfferRank, "user_id": o.UserID})
	return s.offerNext(ctx, tx, a, now, t, res)
}

func (s *AuctionService) confirmPayment(ctx context.Context, tx *sql.Tx, a *model.Auction, userID uint64, now time.Time, t *trail) error {
	if a.Status != model.AuctionEnded || a.CompletionStatus != model.CompletionPending {
		return auctionerrors.ErrInvalidTransition
	}
	if a.WinnerID == nil || *a.WinnerID != userID {
		return auctionerrors.ErrNotPaymentHolder
	}
	n, err := s.d.Payments.MarkPaidTx(ctx, tx, a.ID, userID, now)
	if err != nil {
		return wrap("mark payment paid", err)
	}
	if n == 0 {
		return auctionerrors.ErrPaymentNotFound
	}
	a.MarkPaid()
	metrics.Measures.Settlements.WithLabelValues(string(model.CompletionPaid)).Inc()
	t.add(a.ID, model.ActivityPaymentConfirmed, userID, "payment confirmed", nil)
	return nil
}

// offerNext hands the auction to the next eligible bidder, or fails the
// settlement when the ranks or the bidders ran out.  Rank 1 is the original
// winner; every user who already held an offer on this auction is skipped,
// so ranks strictly increase and nobody is asked twice.
func (s *AuctionService) offerNext(ctx context.Context, tx *sql.Tx, a *model.Auction, now time.Time, t *trail, res *Settlement) error {
	offers, err := s.d.Offers.ListByAuctionTx(ctx, tx, a.ID)
	if err != nil {
		return wrap("list offers", err)
	}
	nextRank := 2
	excluded := make(map[uint64]bool, len(offers)+1)
	if a.WinnerID != nil {
		excluded[*a.WinnerID] = true
	}
	for _, o := range offers {
		if o.Status == model.OfferPending {
			// another step already opened an offer
			return nil
		}
		excluded[o.UserID] = true
		if o.OfferRank >= nextRank {
			nextRank = o.OfferRank + 1
		}
	}

	var (
		candidate rankedBidder
		found     bool
	)
	if nextRank <= s.cfg.MaxOfferRank {
		bids, err := s.d.Bids.ValidBidsTx(ctx, tx, a.ID)
		if err != nil {
			return wrap("rank bidders", err)
		}
		candidate, found = nextCandidate(rankBidders(bids), excluded)
	}
	if !found {
		a.FailSettlement()
		metrics.Measures.Settlements.WithLabelValues(string(model.CompletionFailed)).Inc()
		t.add(a.ID, model.ActivitySettlementFailed, SystemActor, "no eligible bidder left", map[string]any{
			"last_rank": nextRank - 1,
		})
		return nil
	}

	o := &model.Offer{
		AuctionID: a.ID,
		UserID:    candidate.UserID,
		BidAmount: candidate.Amount,
		OfferRank: nextRank,
		Status:    model.OfferPending,
		ExpiresAt: now.Add(s.cfg.OfferWindow),
		CreatedAt: now,
	}
	if err := s.d.Offers.CreateTx(ctx, tx, o); err != nil {
		return wrap("create offer", err)
	}
	a.OpenWaterfall()
	res.Offer = o
	t.add(a.ID, model.ActivityOfferCreated, SystemActor, "auction offered to the next bidder", map[string]any{
		"offer_id":   o.ID,
		"user_id":    o.UserID,
		"rank":       o.OfferRank,
		"amount":     o.BidAmount.StringFixed(2),
		"expires_at": o.ExpiresAt,
	})
	return nil
}

// eventFunc picks the settlement event once the auction row is locked.
type eventFunc func(tx *sql.Tx, a *model.Auction, now time.Time) (settlementEvent, error)

// HandlePaymentExpiry fails the lapsed winner's payment, marks the winner
// critical and offers the auction to the next bidder.  It is a no-op when
// the auction has no winner or the deadline has not passed, so repeated
// sweeps are harmless.
func (s *AuctionService) HandlePaymentExpiry(ctx context.Context, auctionID uint64) (*Settlement, error) {
	return s.settleAuction(ctx, auctionID, func(*sql.Tx, *model.Auction, time.Time) (settlementEvent, error) {
		return paymentExpired{}, nil
	})
}

// ConfirmPayment records that the pending winner paid.  The payment adapter
// calls it after verifying the gateway callback.
func (s *AuctionService) ConfirmPayment(ctx context.Context, auctionID, userID uint64) (*Settlement, error) {
	return s.settleAuction(ctx, auctionID, func(*sql.Tx, *model.Auction, time.Time) (settlementEvent, error) {
		return paymentConfirmed{userID: userID}, nil
	})
}

func (s *AuctionService) settleAuction(ctx context.Context, auctionID uint64, event eventFunc) (*Settlement, error) {
	var (
		res *Settlement
		t   trail
	)
	err := s.d.Tx.RunInTx(ctx, func(tx *sql.Tx) error {
		a, err := s.d.Auctions.GetForUpdateTx(ctx, tx, auctionID)
		if err != nil {
			return wrap("lock auction", err)
		}
		now := s.now()
		ev, err := event(tx, a, now)
		if err != nil {
			return err
		}
		if ev == nil {
			res = &Settlement{AuctionID: a.ID, Noop: true, CompletionStatus: a.CompletionStatus, WinnerID: a.WinnerID, PaymentDeadline: a.WinnerPaymentDeadline}
			return nil
		}
		res, err = s.settle(ctx, tx, a, ev, now, &t)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emit(t)
	return res, nil
}

// OfferResponse is the answer of an offer holder.
type OfferResponse string

const (
	OfferAccept  OfferResponse = "ACCEPT"
	OfferDecline OfferResponse = "DECLINE"
)

// ParseOfferResponse accepts ACCEPT or DECLINE in any case.
func ParseOfferResponse(v string) (OfferResponse, error) {
	switch r := OfferResponse(strings.ToUpper(strings.TrimSpace(v))); r {
	case OfferAccept, OfferDecline:
		return r, nil
	}
	return "", auctionerrors.ErrInvalidResponse
}

// RespondToOffer applies the holder's answer.  An offer whose window closed
// is moved to EXPIRED and the waterfall moves on; that part commits and
// ErrOfferExpired is returned.
func (s *AuctionService) RespondToOffer(ctx context.Context, offerID, userID uint64, response OfferResponse) (*Settlement, error) {
	if response != OfferAccept && response != OfferDecline {
		return nil, auctionerrors.ErrInvalidResponse
	}
	o, err := s.d.Offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, wrap("load offer", err)
	}
	if o.UserID != userID {
		return nil, auctionerrors.ErrNotOfferOwner
	}

	expired := false
	res, err := s.settleAuction(ctx, o.AuctionID, func(tx *sql.Tx, _ *model.Auction, now time.Time) (settlementEvent, error) {
		// auction row is locked first, then the offer row
		locked, err := s.d.Offers.GetForUpdateTx(ctx, tx, offerID)
		if err != nil {
			return nil, wrap("lock offer", err)
		}
		if locked.Status != model.OfferPending {
			return nil, auctionerrors.ErrOfferNotPending
		}
		if locked.IsExpired(now) {
			expired = true
			return offerDeclined{offer: locked, expired: true}, nil
		}
		if response == OfferAccept {
			return offerAccepted{offer: locked}, nil
		}
		return offerDeclined{offer: locked}, nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, auctionerrors.ErrOfferExpired
	}
	return res, nil
}

// ExpireOffers closes every PENDING offer whose window passed and runs the
// decline path for each, exactly as if the holder had declined.
func (s *AuctionService) ExpireOffers(ctx context.Context, limit int) (SweepReport, error) {
	offers, err := s.d.Offers.ListExpiredPending(ctx, s.now(), limit)
	if err != nil {
		return SweepReport{}, wrap("list expired offers", err)
	}
	var report SweepReport
	for _, o := range offers {
		offerID := o.ID
		res, err := s.settleAuction(ctx, o.AuctionID, func(tx *sql.Tx, _ *model.Auction, now time.Time) (settlementEvent, error) {
			locked, err := s.d.Offers.GetForUpdateTx(ctx, tx, offerID)
			if err != nil {
				return nil, wrap("lock offer", err)
			}
			// answered or already expired by a concurrent sweep
			if locked.Status != model.OfferPending || !locked.IsExpired(now) {
				return nil, nil
			}
			return offerDeclined{offer: locked, expired: true}, nil
		})
		report.record("offers", o.AuctionID, res != nil && !res.Noop, err)
	}
	return report, nil
}
