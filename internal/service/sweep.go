package service

import (
	"context"

	"github.com/iliyamo/live-auction/internal/metrics"
	"github.com/iliyamo/live-auction/internal/utils"
)

// SweepReport counts what one sweep did.  A failing item is logged and
// counted; it never stops the sweep.
type SweepReport struct {
	Scanned int
	Changed int
	Failed  int
}

func (r *SweepReport) record(sweep string, auctionID uint64, changed bool, err error) {
	r.Scanned++
	switch {
	case err != nil:
		r.Failed++
		metrics.Measures.SweepErrors.WithLabelValues(sweep).Inc()
		utils.Error("sweep item failed", map[string]any{
			"sweep":      sweep,
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	case changed:
		r.Changed++
	}
}

// SweepEndedAuctions ends every ACTIVE, non-paused auction whose end time
// passed.  Each auction is ended in its own transaction.
func (s *AuctionService) SweepEndedAuctions(ctx context.Context, limit int) (SweepReport, error) {
	ids, err := s.d.Auctions.ListDueForEnd(ctx, s.now(), limit)
	if err != nil {
		return SweepReport{}, wrap("list due auctions", err)
	}
	var report SweepReport
	for _, id := range ids {
		res, err := s.end(ctx, id, SystemActor, true)
		report.record("end", id, res != nil && res.Outcome != EndNoop, err)
	}
	return report, nil
}

// SweepPaymentExpiries runs HandlePaymentExpiry for every ENDED auction
// whose winner missed the payment deadline.
func (s *AuctionService) SweepPaymentExpiries(ctx context.Context, limit int) (SweepReport, error) {
	ids, err := s.d.Auctions.ListPaymentOverdue(ctx, s.now(), limit)
	if err != nil {
		return SweepReport{}, wrap("list overdue payments", err)
	}
	var report SweepReport
	for _, id := range ids {
		res, err := s.HandlePaymentExpiry(ctx, id)
		report.record("payments", id, res != nil && !res.Noop, err)
	}
	return report, nil
}
