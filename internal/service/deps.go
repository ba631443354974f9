package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/live-auction/internal/model"
)

//go:generate mockgen -destination=mock_deps_test.go -package=service . Locker,CooldownGate

// Locker is the cross-process mutex serializing bids on one auction.
// Acquire must not block: it reports false when the key is held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// CooldownGate remembers when a user last bid on an auction.
type CooldownGate interface {
	SecondsSinceLastBid(ctx context.Context, auctionID, userID uint64) (int64, bool, error)
	RecordBid(ctx context.Context, auctionID, userID uint64, cooldownSeconds int) error
}

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// AuctionStore persists the auction aggregate and its assets.
type AuctionStore interface {
	Create(ctx context.Context, a *model.Auction) error
	GetByID(ctx context.Context, id uint64) (*model.Auction, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Auction, error)
	UpdateTx(ctx context.Context, tx *sql.Tx, a *model.Auction) error
	AddAssetTx(ctx context.Context, tx *sql.Tx, asset *model.AuctionAsset) error
	CountAssetsTx(ctx context.Context, tx *sql.Tx, auctionID uint64) (int, error)
	ListDueForEnd(ctx context.Context, now time.Time, limit int) ([]uint64, error)
	ListPaymentOverdue(ctx context.Context, now time.Time, limit int) ([]uint64, error)
}

// BidStore is the append-only bid ledger.
type BidStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Bid) error
	HighestValidTx(ctx context.Context, tx *sql.Tx, auctionID uint64) (*model.Bid, error)
	InvalidateByUserTx(ctx context.Context, tx *sql.Tx, auctionID, userID uint64) (int64, error)
	ValidBidsTx(ctx context.Context, tx *sql.Tx, auctionID uint64) ([]model.Bid, error)
}

// ParticipantStore is the participant registry.
type ParticipantStore interface {
	Get(ctx context.Context, auctionID, userID uint64) (*model.Participant, error)
	Join(ctx context.Context, auctionID, userID uint64, at time.Time) error
	RevokeTx(ctx context.Context, tx *sql.Tx, auctionID, userID uint64, at time.Time) error
	UnrevokeTx(ctx context.Context, tx *sql.Tx, auctionID, userID uint64) (bool, error)
}

// OfferStore persists waterfall offers.
type OfferStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, o *model.Offer) error
	GetByID(ctx context.Context, id uint64) (*model.Offer, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Offer, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.OfferStatus, at time.Time) error
	ListByAuctionTx(ctx context.Context, tx *sql.Tx, auctionID uint64) ([]model.Offer, error)
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]model.Offer, error)
}

// PaymentStore tracks winner payment obligations.
type PaymentStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error
	FailPendingTx(ctx context.Context, tx *sql.Tx, auctionID, userID uint64, at time.Time) (int64, error)
	MarkPaidTx(ctx context.Context, tx *sql.Tx, auctionID, userID uint64, at time.Time) (int64, error)
}

// UserStore applies the critical user penalty.
type UserStore interface {
	MarkCriticalTx(ctx context.Context, tx *sql.Tx, entry *model.CriticalUserLog) error
}

// Emitter receives activity entries after commit.  Emit must not block and
// has no way to fail the caller.
type Emitter interface {
	Emit(entry model.Activity)
}
