package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/live-auction/internal/model"
)

// UserRepo touches the users table owned by the account service.  The
// auction engine only ever writes the critical flag.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the given DB handle.
func NewUserRepo(db *sql.DB) *UserRepo {
	if db == nil {
		panic("repository: nil db")
	}
	return &UserRepo{db: db}
}

// MarkCriticalTx flags the user as critical and appends the audit row that
// explains why.
func (r *UserRepo) MarkCriticalTx(ctx context.Context, tx *sql.Tx, entry *model.CriticalUserLog) error {
	if _, err := tx.ExecContext(ctx, `UPDATE users SET is_critical = 1 WHERE id = ?`, entry.UserID); err != nil {
		return err
	}
	const q = `INSERT INTO critical_user_logs (user_id, auction_id, reason, severity, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, entry.UserID, entry.AuctionID, entry.Reason, entry.Severity, entry.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = uint64(id)
	return nil
}

// IsCritical reports whether the user carries the critical flag.  A user
// row that does not exist is treated as not critical.
func (r *UserRepo) IsCritical(ctx context.Context, userID uint64) (bool, error) {
	var flag bool
	err := r.db.QueryRowContext(ctx, `SELECT is_critical FROM users WHERE id = ?`, userID).Scan(&flag)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return flag, err
}
