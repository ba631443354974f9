package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
	"github.com/iliyamo/live-auction/internal/metrics"
	"github.com/iliyamo/live-auction/internal/model"
)

// CreateAuctionParams are the seller supplied settings of a new auction.
type CreateAuctionParams struct {
	Title                     string
	StartPrice                decimal.Decimal
	MinBidIncrement           decimal.Decimal
	StartAt                   time.Time
	EndAt                     time.Time
	MaxExtensions             int
	AntiSnipeThresholdSeconds int
	AntiSnipeExtensionSeconds int
	BidCooldownSeconds        int
}

func (p CreateAuctionParams) validate() error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("%w: title is required", auctionerrors.ErrInvalidAuction)
	case !model.ValidMoney(p.StartPrice):
		return fmt.Errorf("%w: start price must be positive with at most two decimals", auctionerrors.ErrInvalidAuction)
	case !model.ValidMoney(p.MinBidIncrement):
		return fmt.Errorf("%w: minimum increment must be positive with at most two decimals", auctionerrors.ErrInvalidAuction)
	case p.StartAt.IsZero() || p.EndAt.IsZero() || !p.EndAt.After(p.StartAt):
		return fmt.Errorf("%w: end time must be after start time", auctionerrors.ErrInvalidAuction)
	case p.MaxExtensions < 0 || p.AntiSnipeThresholdSeconds < 0 ||
		p.AntiSnipeExtensionSeconds < 0 || p.BidCooldownSeconds < 0:
		return fmt.Errorf("%w: anti-snipe and cooldown settings must not be negative", auctionerrors.ErrInvalidAuction)
	}
	return nil
}

// CreateAuction stores a new DRAFT auction owned by sellerID.
func (s *AuctionService) CreateAuction(ctx context.Context, sellerID uint64, p CreateAuctionParams) (*model.Auction, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	now := s.now()
	a := &model.Auction{
		SellerID:                  sellerID,
		Title:                     strings.TrimSpace(p.Title),
		StartPrice:                p.StartPrice,
		MinBidIncrement:           p.MinBidIncrement,
		CurrentPrice:              p.StartPrice,
		StartAt:                   p.StartAt.UTC(),
		EndAt:                     p.EndAt.UTC(),
		Status:                    model.AuctionDraft,
		CompletionStatus:          model.CompletionPending,
		MaxExtensions:             p.MaxExtensions,
		AntiSnipeThresholdSeconds: p.AntiSnipeThresholdSeconds,
		AntiSnipeExtensionSeconds: p.AntiSnipeExtensionSeconds,
		BidCooldownSeconds:        p.BidCooldownSeconds,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
	if err := s.d.Auctions.Create(ctx, a); err != nil {
		return nil, wrap("create auction", err)
	}
	var t trail
	t.add(a.ID, model.ActivityAuctionCreated, sellerID, "auction created", nil)
	s.emit(t)
	return a, nil
}

// lockOwned loads the auction FOR UPDATE and checks that actorID is its
// seller.
func (s *AuctionService) lockOwned(ctx context.Context, tx *sql.Tx, auctionID, actorID uint64) (*model.Auction, error) {
	a, err := s.d.Auctions.GetForUpdateTx(ctx, tx, auctionID)
	if err != nil {
		return nil, wrap("lock auction", err)
	}
	if a.SellerID != actorID {
		return nil, auctionerrors.ErrNotSeller
	}
	return a, nil
}

// AddAsset attaches an uploaded asset to a draft.
func (s *AuctionService) AddAsset(ctx context.Context, auctionID, sellerID uint64, storageKey string) (*model.AuctionAsset, error) {
	storageKey = strings.TrimSpace(storageKey)
	if storageKey == "" {
		return nil, fmt.Errorf("%w: storage key is required", auctionerrors.ErrInvalidAuction)
	}
	var asset *model.AuctionAsset
	err := s.d.Tx.RunInTx(ctx, func(tx *sql.Tx) error {
		a, err := s.lockOwned(ctx, tx, auctionID, sellerID)
		if err != nil {
			return err
		}
		if a.Status != model.AuctionDraft {
			return auctionerrors.ErrInvalidTransition
		}
		asset = &model.AuctionAsset{AuctionID: auctionID, StorageKey: storageKey, CreatedAt: s.now()}
		return wrapNil("add asset", s.d.Auctions.AddAssetTx(ctx, tx, asset))
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// Publish moves a draft to ACTIVE.
func (s *AuctionService) Publish(ctx context.Context, auctionID, sellerID uint64) (*model.Auction, error) {
	return s.transition(ctx, auctionID, sellerID, model.ActivityAuctionPublished, "auction published",
		func(ctx context.Context, tx *sql.Tx, a *model.Auction, now time.Time) error {
			n, err := s.d.Auctions.CountAssetsTx(ctx, tx, a.ID)
			if err != nil {
				return wrap("count assets", err)
			}
			return a.Publish(now, n)
		})
}

// Pause stops an ACTIVE auction from accepting bids.  The end time keeps
// running.
func (s *AuctionService) Pause(ctx context.Context, auctionID, sellerID uint64) (*model.Auction, error) {
	return s.transition(ctx, auctionID, sellerID, model.ActivityAuctionPaused, "auction paused",
		func(_ context.Context, _ *sql.Tx, a *model.Auction, _ time.Time) error {
			return a.SetPaused(true)
		})
}

// Resume lets a paused auction accept bids again.
func (s *AuctionService) Resume(ctx context.Context, auctionID, sellerID uint64) (*model.Auction, error) {
	return s.transition(ctx, auctionID, sellerID, model.ActivityAuctionResumed, "auction resumed",
		func(_ context.Context, _ *sql.Tx, a *model.Auction, _ time.Time) error {
			return a.SetPaused(false)
		})
}

// Cancel terminates a DRAFT or ACTIVE auction without a winner.
func (s *AuctionService) Cancel(ctx context.Context, auctionID, sellerID uint64) (*model.Auction, error) {
	return s.transition(ctx, auctionID, sellerID, model.ActivityAuctionCancelled, "auction cancelled",
		func(_ context.Context, _ *sql.Tx, a *model.Auction, _ time.Time) error {
			return a.Cancel()
		})
}

type mutation func(ctx context.Context, tx *sql.Tx, a *model.Auction, now time.Time) error

// transition runs one seller driven state change under the row lock.
func (s *AuctionService) transition(ctx context.Context, auctionID, sellerID uint64, typ model.ActivityType, desc string, mutate mutation) (*model.Auction, error) {
	var out *model.Auction
	err := s.d.Tx.RunInTx(ctx, func(tx *sql.Tx) error {
		a, err := s.lockOwned(ctx, tx, auctionID, sellerID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := mutate(ctx, tx, a, now); err != nil {
			return err
		}
		a.UpdatedAt = now
		if err := s.d.Auctions.UpdateTx(ctx, tx, a); err != nil {
			return wrap("update auction", err)
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	var t trail
	t.add(auctionID, typ, sellerID, desc, map[string]any{"status": out.Status, "is_paused": out.IsPaused})
	s.emit(t)
	return out, nil
}

// EndOutcome tells what EndAuction did.
type EndOutcome int

const (
	EndNoop          EndOutcome = iota // already terminal or not due; nothing changed
	EndWithWinner                      // ended with a declared winner and a pending payment
	EndWithoutWinner                   // ended without valid bids
)

func (o EndOutcome) String() string {
	switch o {
	case EndWithWinner:
		return "winner"
	case EndWithoutWinner:
		return "no_winner"
	default:
		return "noop"
	}
}

// EndResult is returned by EndAuction.  Payment is set only for
// EndWithWinner.
type EndResult struct {
	Outcome EndOutcome
	Auction *model.Auction
	Payment *model.Payment
}

// EndAuction closes an auction.  A repeated call on an ENDED or CANCELLED
// auction returns EndNoop and no error, so duplicate scheduler triggers are
// harmless.  endedBy is the seller, or SystemActor for the scheduler.
func (s *AuctionService) EndAuction(ctx context.Context, auctionID, endedBy uint64) (*EndResult, error) {
	return s.end(ctx, auctionID, endedBy, false)
}

// end implements EndAuction.  With onlyIfDue the end time and pause flag
// are re-checked under the row lock: a late bid may have extended the
// auction after the sweep listed it.
func (s *AuctionService) end(ctx context.Context, auctionID, endedBy uint64, onlyIfDue bool) (*EndResult, error) {
	var (
		res EndResult
		t   trail
	)
	err := s.d.Tx.RunInTx(ctx, func(tx *sql.Tx) error {
		a, err := s.d.Auctions.GetForUpdateTx(ctx, tx, auctionID)
		if err != nil {
			return wrap("lock auction", err)
		}
		res.Auction = a
		if endedBy != SystemActor && endedBy != a.SellerID {
			return auctionerrors.ErrNotSeller
		}
		if a.IsTerminal() {
			res.Outcome = EndNoop
			return nil
		}
		if a.Status != model.AuctionActive {
			return auctionerrors.ErrInvalidTransition
		}
		now := s.now()
		if onlyIfDue && (a.IsPaused || a.EndAt.After(now)) {
			res.Outcome = EndNoop
			return nil
		}

		top, err := s.d.Bids.HighestValidTx(ctx, tx, auctionID)
		if err != nil {
			return wrap("highest bid", err)
		}
		if top == nil {
			a.EndWithoutWinner()
			res.Outcome = EndWithoutWinner
			t.add(auctionID, model.ActivityAuctionEnded, endedBy, "auction ended without bids", nil)
		} else {
			deadline := now.Add(s.cfg.PaymentWindow)
			a.EndWithWinner(top.UserID, deadline)
			p := &model.Payment{
				AuctionID: auctionID,
				UserID:    top.UserID,
				Amount:    top.Amount,
				Status:    model.PaymentPending,
				DueAt:     deadline,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.d.Payments.CreateTx(ctx, tx, p); err != nil {
				return wrap("create payment", err)
			}
			res.Outcome = EndWithWinner
			res.Payment = p
			t.add(auctionID, model.ActivityAuctionEnded, endedBy, "auction ended with a winner", map[string]any{
				"winner_id":        top.UserID,
				"amount":           top.Amount.StringFixed(2),
				"payment_deadline": deadline,
			})
		}
		a.UpdatedAt = now
		return wrapNil("update auction", s.d.Auctions.UpdateTx(ctx, tx, a))
	})
	if err != nil {
		return nil, err
	}
	if res.Outcome != EndNoop {
		metrics.Measures.AuctionsEnded.WithLabelValues(res.Outcome.String()).Inc()
	}
	s.emit(t)
	return &res, nil
}

// wrapNil is wrap for call sites that may pass a nil error.
func wrapNil(op string, err error) error {
	if err == nil {
		return nil
	}
	return wrap(op, err)
}
