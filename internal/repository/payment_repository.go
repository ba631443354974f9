package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/live-auction/internal/model"
)

// PaymentRepo tracks winner payment obligations.  Gateway orders and
// signature checks live in the payment adapter; it only reports back
// through MarkPaidTx.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo constructs a PaymentRepo with the given DB handle.
func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	if db == nil {
		panic("repository: nil db")
	}
	return &PaymentRepo{db: db}
}

// CreateTx inserts a PENDING payment for the declared winner.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (auction_id, user_id, amount, status, due_at, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.AuctionID, p.UserID, p.Amount, p.Status, p.DueAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// FailPendingTx marks the user's pending payment on the auction as FAILED
// and returns the number of rows changed.
func (r *PaymentRepo) FailPendingTx(ctx context.Context, tx *sql.Tx, auctionID, userID uint64, at time.Time) (int64, error) {
	return r.settlePendingTx(ctx, tx, auctionID, userID, model.PaymentFailed, at)
}

// MarkPaidTx marks the user's pending payment on the auction as PAID and
// returns the number of rows changed.
func (r *PaymentRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, auctionID, userID uint64, at time.Time) (int64, error) {
	return r.settlePendingTx(ctx, tx, auctionID, userID, model.PaymentPaid, at)
}

func (r *PaymentRepo) settlePendingTx(ctx context.Context, tx *sql.Tx, auctionID, userID uint64, status model.PaymentStatus, at time.Time) (int64, error) {
	const q = `UPDATE payments SET status = ?, updated_at = ?
               WHERE auction_id = ? AND user_id = ? AND status = 'PENDING'`
	res, err := tx.ExecContext(ctx, q, status, at, auctionID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
