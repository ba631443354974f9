package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/live-auction/internal/model"
)

// BidRepo manages the append-only bid ledger.  Rows are never deleted; the
// only update is flipping is_valid when a bidder is revoked, so the highest
// valid bid can always be derived again from the table.
type BidRepo struct {
	db *sql.DB
}

// NewBidRepo constructs a BidRepo with the given DB handle.
func NewBidRepo(db *sql.DB) *BidRepo {
	if db == nil {
		panic("repository: nil db")
	}
	return &BidRepo{db: db}
}

const bidColumns = `id, auction_id, user_id, amount, is_valid, created_at`

func scanBid(s rowScanner) (model.Bid, error) {
	var b model.Bid
	err := s.Scan(&b.ID, &b.AuctionID, &b.UserID, &b.Amount, &b.IsValid, &b.CreatedAt)
	b.CreatedAt = b.CreatedAt.UTC()
	return b, err
}

// CreateTx appends a valid bid and assigns the generated ID.  It must run
// in the transaction that holds the auction row lock.
func (r *BidRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Bid) error {
	const q = `INSERT INTO bids (auction_id, user_id, amount, is_valid, created_at) VALUES (?, ?, ?, 1, ?)`
	res, err := tx.ExecContext(ctx, q, b.AuctionID, b.UserID, b.Amount, b.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.IsValid = true
	return nil
}

// HighestValidTx returns the highest valid bid of an auction or nil when no
// valid bid exists.  The query is unbounded so a long ledger never hides
// the true maximum; equal amounts resolve to the earliest bid.
func (r *BidRepo) HighestValidTx(ctx context.Context, tx *sql.Tx, auctionID uint64) (*model.Bid, error) {
	q := `SELECT ` + bidColumns + ` FROM bids
          WHERE auction_id = ? AND is_valid = 1
          ORDER BY amount DESC, id ASC LIMIT 1`
	b, err := scanBid(tx.QueryRowContext(ctx, q, auctionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// InvalidateByUserTx flips is_valid on every bid the user placed in the
// auction and returns how many rows changed.
func (r *BidRepo) InvalidateByUserTx(ctx context.Context, tx *sql.Tx, auctionID, userID uint64) (int64, error) {
	const q = `UPDATE bids SET is_valid = 0 WHERE auction_id = ? AND user_id = ? AND is_valid = 1`
	res, err := tx.ExecContext(ctx, q, auctionID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ValidBidsTx returns every valid bid of an auction ordered by amount
// descending, then by bid ID.  The settlement ranking is built from it.
func (r *BidRepo) ValidBidsTx(ctx context.Context, tx *sql.Tx, auctionID uint64) ([]model.Bid, error) {
	q := `SELECT ` + bidColumns + ` FROM bids
          WHERE auction_id = ? AND is_valid = 1
          ORDER BY amount DESC, id ASC`
	rows, err := tx.QueryContext(ctx, q, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBids(rows)
}

// ListByAuction returns the most recent bids of an auction for display,
// including invalidated ones.
func (r *BidRepo) ListByAuction(ctx context.Context, auctionID uint64, limit int) ([]model.Bid, error) {
	q := `SELECT ` + bidColumns + ` FROM bids WHERE auction_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, auctionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBids(rows)
}

func collectBids(rows *sql.Rows) ([]model.Bid, error) {
	bids := []model.Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bids, nil
}
