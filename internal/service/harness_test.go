package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/live-auction/internal/config"
	"github.com/iliyamo/live-auction/internal/model"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const sellerID uint64 = 10

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	db     *memDB
	clock  *testClock
	rec    *recorder
	locker Locker
	gate   CooldownGate
	svc    *AuctionService
}

// newHarness wires the service on in-memory fakes.  locker and gate may be
// nil, in which case in-memory implementations are used.
func newHarness(t *testing.T, locker Locker, gate CooldownGate) *harness {
	t.Helper()
	h := &harness{db: newMemDB(), clock: &testClock{t: t0}, rec: &recorder{}}
	if locker == nil {
		locker = newMemLocker()
	}
	if gate == nil {
		gate = newMemGate(h.clock.Now)
	}
	h.locker, h.gate = locker, gate
	h.svc = NewAuctionService(Deps{
		Tx:           h.db,
		Auctions:     memAuctions{h.db},
		Bids:         memBids{h.db},
		Participants: memParticipants{h.db},
		Offers:       memOffers{h.db},
		Payments:     memPayments{h.db},
		Users:        memUsers{h.db},
		Locker:       locker,
		Cooldown:     gate,
		Activity:     h.rec,
	}, config.DefaultAuctionConfig())
	h.svc.now = h.clock.Now
	return h
}

// activeAuction seeds an ACTIVE auction: start 100, increment 10, one hour
// left, 60s anti-snipe threshold extending by 120s up to 3 times.
func (h *harness) activeAuction(mutate ...func(a *model.Auction)) *model.Auction {
	a := model.Auction{
		SellerID:                  sellerID,
		Title:                     "Walnut desk",
		StartPrice:                dec("100"),
		MinBidIncrement:           dec("10"),
		CurrentPrice:              dec("100"),
		StartAt:                   t0.Add(-time.Hour),
		EndAt:                     t0.Add(time.Hour),
		Status:                    model.AuctionActive,
		CompletionStatus:          model.CompletionPending,
		MaxExtensions:             3,
		AntiSnipeThresholdSeconds: 60,
		AntiSnipeExtensionSeconds: 120,
		CreatedAt:                 t0.Add(-2 * time.Hour),
		UpdatedAt:                 t0.Add(-2 * time.Hour),
	}
	for _, m := range mutate {
		m(&a)
	}
	return h.db.putAuction(a)
}

// endedWithBids seeds an auction ended by the scheduler at t0.  Users
// 1..n bid amounts in order, so with rising amounts user n wins.  The
// clock is then moved past the payment deadline.
func (h *harness) endedWithBids(t *testing.T, amounts ...string) uint64 {
	t.Helper()
	a := h.activeAuction()
	for i, amt := range amounts {
		h.db.addBid(a.ID, uint64(i+1), amt, t0.Add(-time.Duration(len(amounts)-i)*time.Minute))
		if v := dec(amt); v.GreaterThan(a.CurrentPrice) {
			a.CurrentPrice = v
		}
	}
	h.db.mu.Lock()
	h.db.auctions[a.ID] = *copyAuction(*a)
	h.db.mu.Unlock()
	_, err := h.svc.EndAuction(context.Background(), a.ID, SystemActor)
	require.NoError(t, err)
	h.clock.Advance(25 * time.Hour)
	return a.ID
}
