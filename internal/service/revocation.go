package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
	"github.com/iliyamo/live-auction/internal/model"
)

// JoinAuction registers userID as a participant.  Joining twice is a
// no-op; a revoked user stays out.
func (s *AuctionService) JoinAuction(ctx context.Context, auctionID, userID uint64) (*model.Participant, error) {
	a, err := s.d.Auctions.GetByID(ctx, auctionID)
	if err != nil {
		return nil, wrap("load auction", err)
	}
	if a.SellerID == userID {
		return nil, auctionerrors.ErrSellerCannotBid
	}
	if a.Status != model.AuctionActive && a.Status != model.AuctionDraft {
		return nil, auctionerrors.ErrAuctionNotActive
	}

	p, err := s.d.Participants.Get(ctx, auctionID, userID)
	switch {
	case err == nil:
		if p.IsRevoked() {
			return nil, auctionerrors.ErrUserRevoked
		}
		return p, nil
	case !errors.Is(err, auctionerrors.ErrParticipantNotFound):
		return nil, wrap("load participant", err)
	}

	if err := s.d.Participants.Join(ctx, auctionID, userID, s.now()); err != nil {
		return nil, wrap("join auction", err)
	}
	// Re-read: a revocation racing the insert wins.
	p, err = s.d.Participants.Get(ctx, auctionID, userID)
	if err != nil {
		return nil, wrap("load participant", err)
	}
	if p.IsRevoked() {
		return nil, auctionerrors.ErrUserRevoked
	}
	var t trail
	t.add(auctionID, model.ActivityParticipantJoined, userID, "participant joined", nil)
	s.emit(t)
	return p, nil
}

// RevokeResult summarizes a revocation.
type RevokeResult struct {
	BidsInvalidated int64
	OldPrice        decimal.Decimal
	NewPrice        decimal.Decimal
	PriceChanged    bool
}

// RevokeUser bans userID from the auction, invalidates all their bids and
// recomputes the price from the highest remaining valid bid, or the start
// price when none is left.  Only the seller may revoke, and never once the
// auction is terminal.
func (s *AuctionService) RevokeUser(ctx context.Context, auctionID, actorID, userID uint64) (*RevokeResult, error) {
	var res RevokeResult
	err := s.d.Tx.RunInTx(ctx, func(tx *sql.Tx) error {
		a, err := s.lockOwned(ctx, tx, auctionID, actorID)
		if err != nil {
			return err
		}
		if a.IsTerminal() {
			return auctionerrors.ErrInvalidTransition
		}
		now := s.now()
		if err := s.d.Participants.RevokeTx(ctx, tx, auctionID, userID, now); err != nil {
			return wrap("revoke participant", err)
		}
		n, err := s.d.Bids.InvalidateByUserTx(ctx, tx, auctionID, userID)
		if err != nil {
			return wrap("invalidate bids", err)
		}
		res.BidsInvalidated = n
		res.OldPrice = a.CurrentPrice

		top, err := s.d.Bids.HighestValidTx(ctx, tx, auctionID)
		if err != nil {
			return wrap("highest bid", err)
		}
		var highest *decimal.Decimal
		if top != nil {
			highest = &top.Amount
		}
		res.PriceChanged = a.RecomputePrice(highest)
		res.NewPrice = a.CurrentPrice
		if !res.PriceChanged {
			return nil
		}
		a.UpdatedAt = now
		return wrapNil("update auction", s.d.Auctions.UpdateTx(ctx, tx, a))
	})
	if err != nil {
		return nil, err
	}
	var t trail
	t.add(auctionID, model.ActivityUserRevoked, actorID, "participant revoked", map[string]any{
		"user_id":          userID,
		"bids_invalidated": res.BidsInvalidated,
		"old_price":        res.OldPrice.StringFixed(2),
		"new_price":        res.NewPrice.StringFixed(2),
		"price_changed":    res.PriceChanged,
	})
	s.emit(t)
	return &res, nil
}

// UnrevokeUser lifts the ban.  Bids invalidated by the revocation stay
// invalid.  Lifting a ban that does not exist is a no-op.
func (s *AuctionService) UnrevokeUser(ctx context.Context, auctionID, actorID, userID uint64) error {
	var changed bool
	err := s.d.Tx.RunInTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.lockOwned(ctx, tx, auctionID, actorID); err != nil {
			return err
		}
		var err error
		changed, err = s.d.Participants.UnrevokeTx(ctx, tx, auctionID, userID)
		return wrapNil("unrevoke participant", err)
	})
	if err != nil {
		return err
	}
	if changed {
		var t trail
		t.add(auctionID, model.ActivityUserUnrevoked, actorID, "participant ban lifted", map[string]any{"user_id": userID})
		s.emit(t)
	}
	return nil
}
