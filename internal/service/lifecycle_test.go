package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
	"github.com/iliyamo/live-auction/internal/model"
)

func validParams() CreateAuctionParams {
	return CreateAuctionParams{
		Title:                     "  Walnut desk ",
		StartPrice:                dec("100"),
		MinBidIncrement:           dec("10"),
		StartAt:                   t0,
		EndAt:                     t0.Add(time.Hour),
		MaxExtensions:             3,
		AntiSnipeThresholdSeconds: 60,
		AntiSnipeExtensionSeconds: 120,
	}
}

func TestCreateAuction(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(p *CreateAuctionParams)
	}{
		{"blank title", func(p *CreateAuctionParams) { p.Title = " " }},
		{"zero start price", func(p *CreateAuctionParams) { p.StartPrice = dec("0") }},
		{"sub-cent start price", func(p *CreateAuctionParams) { p.StartPrice = dec("100.005") }},
		{"sub-cent increment", func(p *CreateAuctionParams) { p.MinBidIncrement = dec("0.001") }},
		{"negative increment", func(p *CreateAuctionParams) { p.MinBidIncrement = dec("-1") }},
		{"end before start", func(p *CreateAuctionParams) { p.EndAt = p.StartAt.Add(-time.Minute) }},
		{"missing end", func(p *CreateAuctionParams) { p.EndAt = time.Time{} }},
		{"negative extensions", func(p *CreateAuctionParams) { p.MaxExtensions = -1 }},
		{"negative cooldown", func(p *CreateAuctionParams) { p.BidCooldownSeconds = -5 }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, nil, nil)
			p := validParams()
			tc.mutate(&p)
			_, err := h.svc.CreateAuction(context.Background(), sellerID, p)
			require.ErrorIs(t, err, auctionerrors.ErrInvalidAuction)
			require.Equal(t, auctionerrors.KindValidation, auctionerrors.Classify(err))
		})
	}

	t.Run("draft", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil, nil)
		a, err := h.svc.CreateAuction(context.Background(), sellerID, validParams())
		require.NoError(t, err)
		require.NotZero(t, a.ID)
		require.Equal(t, "Walnut desk", a.Title)
		require.Equal(t, model.AuctionDraft, a.Status)
		require.Equal(t, model.CompletionPending, a.CompletionStatus)
		require.True(t, a.CurrentPrice.Equal(dec("100")))
		require.Equal(t, []model.ActivityType{model.ActivityAuctionCreated}, h.rec.types())
	})
}

func TestPublish(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil, nil)
	a, err := h.svc.CreateAuction(ctx, sellerID, validParams())
	require.NoError(t, err)

	_, err = h.svc.Publish(ctx, a.ID, sellerID)
	require.ErrorIs(t, err, auctionerrors.ErrPublishRequirement)

	_, err = h.svc.AddAsset(ctx, a.ID, 99, "photos/desk.jpg")
	require.ErrorIs(t, err, auctionerrors.ErrNotSeller)
	_, err = h.svc.AddAsset(ctx, a.ID, sellerID, " ")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidAuction)
	asset, err := h.svc.AddAsset(ctx, a.ID, sellerID, "photos/desk.jpg")
	require.NoError(t, err)
	require.Equal(t, a.ID, asset.AuctionID)

	_, err = h.svc.Publish(ctx, a.ID, 99)
	require.ErrorIs(t, err, auctionerrors.ErrNotSeller)

	published, err := h.svc.Publish(ctx, a.ID, sellerID)
	require.NoError(t, err)
	require.Equal(t, model.AuctionActive, published.Status)
	require.Equal(t, model.AuctionActive, h.db.auction(a.ID).Status)
	require.True(t, h.rec.has(model.ActivityAuctionPublished))

	_, err = h.svc.Publish(ctx, a.ID, sellerID)
	require.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)
	_, err = h.svc.AddAsset(ctx, a.ID, sellerID, "photos/back.jpg")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)
}

func TestPublish_EndInPast(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, nil)
	a := h.activeAuction(func(a *model.Auction) {
		a.Status = model.AuctionDraft
		a.EndAt = t0.Add(-time.Minute)
		a.StartAt = t0.Add(-time.Hour)
	})
	_, err := h.svc.AddAsset(context.Background(), a.ID, sellerID, "k")
	require.NoError(t, err)
	_, err = h.svc.Publish(context.Background(), a.ID, sellerID)
	require.ErrorIs(t, err, auctionerrors.ErrPublishRequirement)
	require.Equal(t, model.AuctionDraft, h.db.auction(a.ID).Status)
}

func TestPauseResumeCancel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil, nil)
	a := h.activeAuction()

	_, err := h.svc.Resume(ctx, a.ID, sellerID)
	require.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)

	paused, err := h.svc.Pause(ctx, a.ID, sellerID)
	require.NoError(t, err)
	require.True(t, paused.IsPaused)
	_, err = h.svc.Pause(ctx, a.ID, sellerID)
	require.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)
	_, err = h.svc.Resume(ctx, a.ID, 99)
	require.ErrorIs(t, err, auctionerrors.ErrNotSeller)

	resumed, err := h.svc.Resume(ctx, a.ID, sellerID)
	require.NoError(t, err)
	require.False(t, resumed.IsPaused)

	cancelled, err := h.svc.Cancel(ctx, a.ID, sellerID)
	require.NoError(t, err)
	require.Equal(t, model.AuctionCancelled, cancelled.Status)
	_, err = h.svc.Cancel(ctx, a.ID, sellerID)
	require.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)
	_, err = h.svc.Pause(ctx, a.ID, sellerID)
	require.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)

	require.Equal(t, []model.ActivityType{
		model.ActivityAuctionPaused,
		model.ActivityAuctionResumed,
		model.ActivityAuctionCancelled,
	}, h.rec.types())
}

func TestEndAuction(t *testing.T) {
	t.Parallel()

	t.Run("winner", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		h := newHarness(t, nil, nil)
		a := h.activeAuction()
		h.db.addBid(a.ID, 1, "110", t0.Add(-2*time.Minute))
		h.db.addBid(a.ID, 2, "130", t0.Add(-time.Minute))
		h.db.addBid(a.ID, 3, "130", t0)

		res, err := h.svc.EndAuction(ctx, a.ID, sellerID)
		require.NoError(t, err)
		require.Equal(t, EndWithWinner, res.Outcome)
		require.Equal(t, uint64(2), *res.Auction.WinnerID)
		require.Equal(t, t0.Add(24*time.Hour), *res.Auction.WinnerPaymentDeadline)
		require.Equal(t, model.AuctionEnded, res.Auction.Status)
		require.Equal(t, model.CompletionPending, res.Auction.CompletionStatus)

		require.NotNil(t, res.Payment)
		require.Equal(t, model.PaymentPending, res.Payment.Status)
		require.True(t, res.Payment.Amount.Equal(dec("130")))
		require.Len(t, h.db.paymentsOf(a.ID), 1)

		again, err := h.svc.EndAuction(ctx, a.ID, SystemActor)
		require.NoError(t, err)
		require.Equal(t, EndNoop, again.Outcome)
		require.Len(t, h.db.paymentsOf(a.ID), 1)
		require.Equal(t, []model.ActivityType{model.ActivityAuctionEnded}, h.rec.types())
	})

	t.Run("no bids", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil, nil)
		a := h.activeAuction()
		h.db.addBid(a.ID, 1, "110", t0)
		h.db.mu.Lock()
		h.db.bids[0].IsValid = false
		h.db.mu.Unlock()

		res, err := h.svc.EndAuction(context.Background(), a.ID, SystemActor)
		require.NoError(t, err)
		require.Equal(t, EndWithoutWinner, res.Outcome)
		stored := h.db.auction(a.ID)
		require.Nil(t, stored.WinnerID)
		require.Equal(t, model.CompletionFailed, stored.CompletionStatus)
		require.Empty(t, h.db.paymentsOf(a.ID))
	})

	t.Run("rejects", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil, nil)
		draft := h.activeAuction(func(a *model.Auction) { a.Status = model.AuctionDraft })
		_, err := h.svc.EndAuction(context.Background(), draft.ID, sellerID)
		require.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)

		active := h.activeAuction()
		_, err = h.svc.EndAuction(context.Background(), active.ID, 99)
		require.ErrorIs(t, err, auctionerrors.ErrNotSeller)

		_, err = h.svc.EndAuction(context.Background(), 404, SystemActor)
		require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)
	})
}

func TestSweepEndedAuctions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil, nil)
	due := h.activeAuction(func(a *model.Auction) { a.EndAt = t0.Add(-time.Second) })
	h.db.addBid(due.ID, 1, "150", t0.Add(-time.Minute))
	exact := h.activeAuction(func(a *model.Auction) { a.EndAt = t0 })
	paused := h.activeAuction(func(a *model.Auction) {
		a.EndAt = t0.Add(-time.Second)
		a.IsPaused = true
	})
	running := h.activeAuction()

	report, err := h.svc.SweepEndedAuctions(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, SweepReport{Scanned: 2, Changed: 2}, report)

	require.Equal(t, model.AuctionEnded, h.db.auction(due.ID).Status)
	require.Equal(t, uint64(1), *h.db.auction(due.ID).WinnerID)
	require.Equal(t, model.CompletionFailed, h.db.auction(exact.ID).CompletionStatus)
	require.Equal(t, model.AuctionActive, h.db.auction(paused.ID).Status)
	require.Equal(t, model.AuctionActive, h.db.auction(running.ID).Status)

	report, err = h.svc.SweepEndedAuctions(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, SweepReport{}, report)
}

// staleDue lists auctions as due no matter what the row says, the way a
// listing taken before a late bid extended the auction would.
type staleDue struct {
	memAuctions
	ids []uint64
}

func (s staleDue) ListDueForEnd(context.Context, time.Time, int) ([]uint64, error) {
	return s.ids, nil
}

func TestSweepEndedAuctions_RechecksUnderLock(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, nil)
	extended := h.activeAuction()
	paused := h.activeAuction(func(a *model.Auction) {
		a.EndAt = t0.Add(-time.Second)
		a.IsPaused = true
	})
	h.svc.d.Auctions = staleDue{memAuctions: memAuctions{h.db}, ids: []uint64{extended.ID, paused.ID, 404}}

	report, err := h.svc.SweepEndedAuctions(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, SweepReport{Scanned: 3, Failed: 1}, report)
	require.Equal(t, model.AuctionActive, h.db.auction(extended.ID).Status)
	require.Equal(t, model.AuctionActive, h.db.auction(paused.ID).Status)
	require.Empty(t, h.rec.types())
}
