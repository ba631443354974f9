// Package scheduler drives the time based transitions of the engine: ending
// auctions whose end time passed, expiring unpaid winners and expiring
// unanswered waterfall offers.  Each sweep is idempotent, so several
// scheduler instances may run side by side.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/live-auction/internal/service"
	"github.com/iliyamo/live-auction/internal/utils"
)

// Sweeper is the part of service.AuctionService the scheduler triggers.
type Sweeper interface {
	SweepEndedAuctions(ctx context.Context, limit int) (service.SweepReport, error)
	SweepPaymentExpiries(ctx context.Context, limit int) (service.SweepReport, error)
	ExpireOffers(ctx context.Context, limit int) (service.SweepReport, error)
}

var _ Sweeper = (*service.AuctionService)(nil)

// Runner invokes every sweep once per interval.
type Runner struct {
	sweeper  Sweeper
	interval time.Duration
	batch    int
}

// NewRunner panics on a nil sweeper.  Non-positive interval or batch fall
// back to 15s and 200.
func NewRunner(s Sweeper, interval time.Duration, batch int) *Runner {
	if s == nil {
		panic("scheduler: nil sweeper")
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if batch <= 0 {
		batch = 200
	}
	return &Runner{sweeper: s, interval: interval, batch: batch}
}

type sweepFunc func(ctx context.Context, limit int) (service.SweepReport, error)

// RunOnce runs the three sweeps concurrently and waits for all of them.
// Per-auction failures are counted in the reports; the returned error is
// the first sweep that could not run at all.
func (r *Runner) RunOnce(ctx context.Context) error {
	sweeps := []struct {
		name string
		fn   sweepFunc
	}{
		{"end_auctions", r.sweeper.SweepEndedAuctions},
		{"payment_expiry", r.sweeper.SweepPaymentExpiries},
		{"offer_expiry", r.sweeper.ExpireOffers},
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, sw := range sweeps {
		sw := sw
		g.Go(func() error {
			start := time.Now()
			rep, err := sw.fn(gctx, r.batch)
			if err != nil {
				return fmt.Errorf("%s: %w", sw.name, err)
			}
			if rep.Scanned > 0 {
				utils.Info("sweep finished", map[string]any{
					"sweep":      sw.name,
					"scanned":    rep.Scanned,
					"changed":    rep.Changed,
					"failed":     rep.Failed,
					"elapsed_ms": time.Since(start).Milliseconds(),
				})
			}
			return nil
		})
	}
	return g.Wait()
}

// Run calls RunOnce immediately and then on every tick until ctx is
// cancelled.  A failed round is logged and the loop continues.
func (r *Runner) Run(ctx context.Context) error {
	utils.Info("scheduler started", map[string]any{"interval": r.interval.String(), "batch": r.batch})
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			utils.Error("sweep round failed", map[string]any{"error": err.Error()})
		}
		select {
		case <-ctx.Done():
			utils.Info("scheduler stopped", nil)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
