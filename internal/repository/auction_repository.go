package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
	"github.com/iliyamo/live-auction/internal/model"
)

// auctionColumns lists the auctions columns in the order scanAuction
// expects them.
const auctionColumns = `id, seller_id, title, start_price, min_bid_increment, current_price,
       start_at, end_at, status, is_paused, winner_id, winner_payment_deadline,
       completion_status, extension_count, max_extensions, anti_snipe_threshold_seconds,
       anti_snipe_extension_seconds, bid_cooldown_seconds, created_at, updated_at`

// AuctionRepo manages persistence for auctions and their assets.
type AuctionRepo struct {
	db *sql.DB
}

// NewAuctionRepo constructs an AuctionRepo with the given DB handle.
func NewAuctionRepo(db *sql.DB) *AuctionRepo {
	if db == nil {
		panic("repository: nil db")
	}
	return &AuctionRepo{db: db}
}

// scanAuction reads one auctions row.  Nullable winner fields are mapped to
// nil pointers.
func scanAuction(s rowScanner) (*model.Auction, error) {
	var (
		a        model.Auction
		winner   sql.NullInt64
		deadline sql.NullTime
	)
	err := s.Scan(
		&a.ID, &a.SellerID, &a.Title, &a.StartPrice, &a.MinBidIncrement, &a.CurrentPrice,
		&a.StartAt, &a.EndAt, &a.Status, &a.IsPaused, &winner, &deadline,
		&a.CompletionStatus, &a.ExtensionCount, &a.MaxExtensions, &a.AntiSnipeThresholdSeconds,
		&a.AntiSnipeExtensionSeconds, &a.BidCooldownSeconds, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auctionerrors.ErrAuctionNotFound
		}
		return nil, err
	}
	if winner.Valid {
		id := uint64(winner.Int64)
		a.WinnerID = &id
	}
	if deadline.Valid {
		d := deadline.Time.UTC()
		a.WinnerPaymentDeadline = &d
	}
	a.StartAt = a.StartAt.UTC()
	a.EndAt = a.EndAt.UTC()
	return &a, nil
}

// Create inserts a DRAFT auction and assigns the generated ID.  Timestamps
// are taken from the struct so callers control the clock.
func (r *AuctionRepo) Create(ctx context.Context, a *model.Auction) error {
	const q = `INSERT INTO auctions (seller_id, title, start_price, min_bid_increment, current_price,
                   start_at, end_at, status, is_paused, completion_status, extension_count, max_extensions,
                   anti_snipe_threshold_seconds, anti_snipe_extension_seconds, bid_cooldown_seconds,
                   created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		a.SellerID, a.Title, a.StartPrice, a.MinBidIncrement, a.CurrentPrice,
		a.StartAt, a.EndAt, a.Status, a.IsPaused, a.CompletionStatus, a.ExtensionCount, a.MaxExtensions,
		a.AntiSnipeThresholdSeconds, a.AntiSnipeExtensionSeconds, a.BidCooldownSeconds,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetByID reads an auction without locking.  Used by public reads and to
// short-circuit obviously invalid requests before a transaction is opened.
func (r *AuctionRepo) GetByID(ctx context.Context, id uint64) (*model.Auction, error) {
	q := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`
	return scanAuction(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx reads an auction and takes the row lock for the rest of
// the transaction.  Every writer of price, end time, status or winner goes
// through this call first.
func (r *AuctionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Auction, error) {
	q := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ? FOR UPDATE`
	return scanAuction(tx.QueryRowContext(ctx, q, id))
}

// UpdateTx writes every mutable column of the auction.  The caller must
// hold the row lock taken by GetForUpdateTx.
func (r *AuctionRepo) UpdateTx(ctx context.Context, tx *sql.Tx, a *model.Auction) error {
	const q = `UPDATE auctions
               SET current_price = ?, end_at = ?, status = ?, is_paused = ?, winner_id = ?,
                   winner_payment_deadline = ?, completion_status = ?, extension_count = ?,
                   updated_at = ?
               WHERE id = ?`
	var winner any
	if a.WinnerID != nil {
		winner = *a.WinnerID
	}
	var deadline any
	if a.WinnerPaymentDeadline != nil {
		deadline = *a.WinnerPaymentDeadline
	}
	res, err := tx.ExecContext(ctx, q,
		a.CurrentPrice, a.EndAt, a.Status, a.IsPaused, winner,
		deadline, a.CompletionStatus, a.ExtensionCount,
		a.UpdatedAt, a.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auctionerrors.ErrAuctionNotFound
	}
	return nil
}

// AddAssetTx attaches an uploaded asset reference to an auction.
func (r *AuctionRepo) AddAssetTx(ctx context.Context, tx *sql.Tx, asset *model.AuctionAsset) error {
	const q = `INSERT INTO auction_assets (auction_id, storage_key, created_at) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, asset.AuctionID, asset.StorageKey, asset.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	asset.ID = uint64(id)
	return nil
}

// CountAssetsTx returns how many assets an auction has.
func (r *AuctionRepo) CountAssetsTx(ctx context.Context, tx *sql.Tx, auctionID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM auction_assets WHERE auction_id = ?`, auctionID).Scan(&n)
	return n, err
}

// List returns auctions in the given status, newest first.  An empty status
// lists every auction that is not a draft.
func (r *AuctionRepo) List(ctx context.Context, status model.AuctionStatus, limit, offset int) ([]model.Auction, error) {
	q := `SELECT ` + auctionColumns + ` FROM auctions WHERE status <> 'DRAFT'`
	args := []any{}
	if status != "" {
		q = `SELECT ` + auctionColumns + ` FROM auctions WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	return r.queryAuctions(ctx, q, args...)
}

func (r *AuctionRepo) queryAuctions(ctx context.Context, q string, args ...any) ([]model.Auction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Auction{}
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListDueForEnd returns IDs of ACTIVE, non-paused auctions whose end time
// has passed.  The sweeper ends each one in its own transaction.
func (r *AuctionRepo) ListDueForEnd(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	const q = `SELECT id FROM auctions
               WHERE status = 'ACTIVE' AND is_paused = 0 AND end_at <= ?
               ORDER BY end_at ASC LIMIT ?`
	return r.queryIDs(ctx, q, now, limit)
}

// ListPaymentOverdue returns IDs of ENDED auctions whose declared winner
// missed the payment deadline.
func (r *AuctionRepo) ListPaymentOverdue(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	const q = `SELECT id FROM auctions
               WHERE status = 'ENDED' AND completion_status = 'PENDING'
                 AND winner_id IS NOT NULL AND winner_payment_deadline <= ?
               ORDER BY winner_payment_deadline ASC LIMIT ?`
	return r.queryIDs(ctx, q, now, limit)
}

func (r *AuctionRepo) queryIDs(ctx context.Context, q string, args ...any) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
