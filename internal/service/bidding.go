package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
	"github.com/iliyamo/live-auction/internal/metrics"
	"github.com/iliyamo/live-auction/internal/model"
	"github.com/iliyamo/live-auction/internal/utils"
)

// BidResult describes an admitted bid and the auction state right after it.
type BidResult struct {
	Bid            model.Bid
	CurrentPrice   decimal.Decimal
	EndAt          time.Time
	Extended       bool
	ExtensionCount int
}

func bidLockKey(auctionID uint64) string {
	return fmt.Sprintf("bid-lock:%d", auctionID)
}

// PlaceBid admits one bid.  The auction lock is tried once; a held lock
// fails with ErrLockContended and the client retries.  Inside the lock the
// auction row is re-read FOR UPDATE, so two bids can never both be checked
// against the same price.
func (s *AuctionService) PlaceBid(ctx context.Context, auctionID, userID uint64, amount decimal.Decimal) (res *BidResult, err error) {
	started := time.Now()
	defer func() {
		metrics.Measures.Bids.WithLabelValues(bidOutcome(err)).Inc()
		metrics.Measures.BidLatency.Observe(time.Since(started).Seconds())
	}()

	key := bidLockKey(auctionID)
	token, ok, err := s.d.Locker.Acquire(ctx, key, s.cfg.BidLockTTL)
	if err != nil {
		return nil, wrap("acquire bid lock", err)
	}
	if !ok {
		return nil, auctionerrors.ErrLockContended
	}
	defer s.releaseBidLock(ctx, key, token)

	p, err := s.d.Participants.Get(ctx, auctionID, userID)
	if errors.Is(err, auctionerrors.ErrParticipantNotFound) {
		return nil, auctionerrors.ErrNotParticipant
	}
	if err != nil {
		return nil, wrap("load participant", err)
	}
	if p.IsRevoked() {
		return nil, auctionerrors.ErrUserRevoked
	}

	var (
		bid      model.Bid
		auction  *model.Auction
		extended bool
	)
	err = s.d.Tx.RunInTx(ctx, func(tx *sql.Tx) error {
		a, err := s.d.Auctions.GetForUpdateTx(ctx, tx, auctionID)
		if err != nil {
			return wrap("lock auction", err)
		}
		if err := s.checkCooldown(ctx, a, userID); err != nil {
			return err
		}
		now := s.now()
		if err := a.CheckAcceptingBids(now, userID); err != nil {
			return err
		}
		if err := a.CheckAmount(amount); err != nil {
			return err
		}

		bid = model.Bid{AuctionID: auctionID, UserID: userID, Amount: amount, CreatedAt: now}
		if err := s.d.Bids.CreateTx(ctx, tx, &bid); err != nil {
			return wrap("insert bid", err)
		}
		extended = a.ApplyBid(amount, now)
		a.UpdatedAt = now
		if err := s.d.Auctions.UpdateTx(ctx, tx, a); err != nil {
			return wrap("update auction", err)
		}
		if err := s.d.Cooldown.RecordBid(ctx, auctionID, userID, a.BidCooldownSeconds); err != nil {
			return wrap("record cooldown", err)
		}
		auction = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	var t trail
	t.add(auctionID, model.ActivityBidPlaced, userID, "bid placed", map[string]any{
		"bid_id": bid.ID,
		"amount": amount.StringFixed(2),
	})
	if extended {
		metrics.Measures.Extensions.Inc()
		t.add(auctionID, model.ActivityAuctionExtended, SystemActor, "auction extended by a late bid", map[string]any{
			"end_at":          auction.EndAt,
			"extension_count": auction.ExtensionCount,
		})
	}
	s.emit(t)

	return &BidResult{
		Bid:            bid,
		CurrentPrice:   auction.CurrentPrice,
		EndAt:          auction.EndAt,
		Extended:       extended,
		ExtensionCount: auction.ExtensionCount,
	}, nil
}

// checkCooldown rejects a bid placed before the auction's cooldown elapsed
// since the user's previous bid.
func (s *AuctionService) checkCooldown(ctx context.Context, a *model.Auction, userID uint64) error {
	if a.BidCooldownSeconds <= 0 {
		return nil
	}
	since, seen, err := s.d.Cooldown.SecondsSinceLastBid(ctx, a.ID, userID)
	if err != nil {
		return wrap("read cooldown", err)
	}
	if seen && since < int64(a.BidCooldownSeconds) {
		return &auctionerrors.CooldownError{RemainingSeconds: int64(a.BidCooldownSeconds) - since}
	}
	return nil
}

// releaseBidLock runs on every exit path of PlaceBid.  It uses its own
// deadline so a cancelled request still frees the key.
func (s *AuctionService) releaseBidLock(ctx context.Context, key, token string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.d.Locker.Release(rctx, key, token); err != nil {
		utils.Warn("bid lock release failed", map[string]any{"key": key, "error": err.Error()})
	}
}

func bidOutcome(err error) string {
	if err == nil {
		return "accepted"
	}
	switch auctionerrors.Classify(err) {
	case auctionerrors.KindContention:
		return "contended"
	case auctionerrors.KindInternal:
		return "error"
	default:
		return "rejected"
	}
}
