// Package service implements the bidding and settlement engine: bid
// admission, the auction lifecycle, participant revocation and the offer
// waterfall that runs when a winner does not pay.
package service

import (
	"fmt"
	"time"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
	"github.com/iliyamo/live-auction/internal/config"
	"github.com/iliyamo/live-auction/internal/model"
)

// SystemActor is the actor ID used when the scheduler, not a user, drives
// a transition.
const SystemActor uint64 = 0

// Deps bundles the collaborators of AuctionService.
type Deps struct {
	Tx           TxRunner
	Auctions     AuctionStore
	Bids         BidStore
	Participants ParticipantStore
	Offers       OfferStore
	Payments     PaymentStore
	Users        UserStore
	Locker       Locker
	Cooldown     CooldownGate
	Activity     Emitter
}

// AuctionService is the entry point of every state-changing auction
// operation.  Only PlaceBid takes the distributed lock; every other writer
// relies on the auction row lock taken inside its transaction.
type AuctionService struct {
	d   Deps
	cfg config.AuctionConfig
	now func() time.Time
}

// NewAuctionService wires the engine.  It panics when a dependency is
// missing.
func NewAuctionService(d Deps, cfg config.AuctionConfig) *AuctionService {
	switch {
	case d.Tx == nil, d.Auctions == nil, d.Bids == nil, d.Participants == nil,
		d.Offers == nil, d.Payments == nil, d.Users == nil,
		d.Locker == nil, d.Cooldown == nil, d.Activity == nil:
		panic("service: missing dependency")
	}
	return &AuctionService{
		d:   d,
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// trail collects activity entries inside a transaction.  They are emitted
// only once the transaction committed.
type trail []model.Activity

func (t *trail) add(auctionID uint64, typ model.ActivityType, actor uint64, desc string, meta map[string]any) {
	entry := model.Activity{
		AuctionID:   auctionID,
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	}
	if actor != SystemActor {
		id := actor
		entry.ActorID = &id
	}
	*t = append(*t, entry)
}

func (s *AuctionService) emit(t trail) {
	for _, e := range t {
		s.d.Activity.Emit(e)
	}
}

// wrap adds the operation to infrastructure errors.  Domain errors pass
// through untouched so their message reaches the caller as is.
func wrap(op string, err error) error {
	if auctionerrors.Classify(err) != auctionerrors.KindInternal {
		return err
	}
	return fmt.Errorf("service: %s: %w", op, err)
}
