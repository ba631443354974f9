package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
	"github.com/iliyamo/live-auction/internal/model"
)

// ParticipantRepo tracks who entered an auction room and who was banned
// from it.  Revocation is a tombstone on the row, never a delete.
type ParticipantRepo struct {
	db *sql.DB
}

// NewParticipantRepo constructs a ParticipantRepo with the given DB handle.
func NewParticipantRepo(db *sql.DB) *ParticipantRepo {
	if db == nil {
		panic("repository: nil db")
	}
	return &ParticipantRepo{db: db}
}

// Get returns the participant row or ErrParticipantNotFound.
func (r *ParticipantRepo) Get(ctx context.Context, auctionID, userID uint64) (*model.Participant, error) {
	const q = `SELECT auction_id, user_id, joined_at, revoked_at
               FROM auction_participants WHERE auction_id = ? AND user_id = ?`
	var (
		p       model.Participant
		revoked sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, auctionID, userID).Scan(&p.AuctionID, &p.UserID, &p.JoinedAt, &revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auctionerrors.ErrParticipantNotFound
		}
		return nil, err
	}
	if revoked.Valid {
		t := revoked.Time.UTC()
		p.RevokedAt = &t
	}
	return &p, nil
}

// Join records the first entry of a user.  Repeated joins keep the original
// joined_at and never clear a tombstone.
func (r *ParticipantRepo) Join(ctx context.Context, auctionID, userID uint64, at time.Time) error {
	const q = `INSERT IGNORE INTO auction_participants (auction_id, user_id, joined_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, auctionID, userID, at)
	return err
}

// RevokeTx sets the tombstone, creating the row when the user never joined
// so that a later join is rejected as well.
func (r *ParticipantRepo) RevokeTx(ctx context.Context, tx *sql.Tx, auctionID, userID uint64, at time.Time) error {
	const q = `INSERT INTO auction_participants (auction_id, user_id, joined_at, revoked_at)
               VALUES (?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE revoked_at = VALUES(revoked_at)`
	_, err := tx.ExecContext(ctx, q, auctionID, userID, at, at)
	return err
}

// UnrevokeTx clears the tombstone.  It reports false when the user was not
// revoked.
func (r *ParticipantRepo) UnrevokeTx(ctx context.Context, tx *sql.Tx, auctionID, userID uint64) (bool, error) {
	const q = `UPDATE auction_participants SET revoked_at = NULL
               WHERE auction_id = ? AND user_id = ? AND revoked_at IS NOT NULL`
	res, err := tx.ExecContext(ctx, q, auctionID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
