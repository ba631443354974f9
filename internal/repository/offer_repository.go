package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
	"github.com/iliyamo/live-auction/internal/model"
)

// OfferRepo persists waterfall offers.  The table carries unique keys on
// (auction_id, user_id) and (auction_id, offer_rank), so a user is never
// offered the same auction twice and a rank is never reused.
type OfferRepo struct {
	db *sql.DB
}

// NewOfferRepo constructs an OfferRepo with the given DB handle.
func NewOfferRepo(db *sql.DB) *OfferRepo {
	if db == nil {
		panic("repository: nil db")
	}
	return &OfferRepo{db: db}
}

const offerColumns = `id, auction_id, user_id, bid_amount, offer_rank, status, expires_at, responded_at, created_at`

func scanOffer(s rowScanner) (*model.Offer, error) {
	var (
		o         model.Offer
		responded sql.NullTime
	)
	err := s.Scan(&o.ID, &o.AuctionID, &o.UserID, &o.BidAmount, &o.OfferRank, &o.Status, &o.ExpiresAt, &responded, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auctionerrors.ErrOfferNotFound
		}
		return nil, err
	}
	o.ExpiresAt = o.ExpiresAt.UTC()
	if responded.Valid {
		t := responded.Time.UTC()
		o.RespondedAt = &t
	}
	return &o, nil
}

// CreateTx inserts a PENDING offer and assigns the generated ID.
func (r *OfferRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Offer) error {
	const q = `INSERT INTO auction_offers (auction_id, user_id, bid_amount, offer_rank, status, expires_at, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, o.AuctionID, o.UserID, o.BidAmount, o.OfferRank, o.Status, o.ExpiresAt, o.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// GetByID reads an offer without locking.  Callers use it to find the
// auction whose row lock must be taken first.
func (r *OfferRepo) GetByID(ctx context.Context, id uint64) (*model.Offer, error) {
	q := `SELECT ` + offerColumns + ` FROM auction_offers WHERE id = ?`
	return scanOffer(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx reads and locks an offer.  Lock the auction row before
// the offer row to keep lock order consistent.
func (r *OfferRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Offer, error) {
	q := `SELECT ` + offerColumns + ` FROM auction_offers WHERE id = ? FOR UPDATE`
	return scanOffer(tx.QueryRowContext(ctx, q, id))
}

// UpdateStatusTx moves a PENDING offer to its final status.  It returns
// ErrOfferNotPending when the offer already left PENDING.
func (r *OfferRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.OfferStatus, at time.Time) error {
	const q = `UPDATE auction_offers SET status = ?, responded_at = ? WHERE id = ? AND status = 'PENDING'`
	res, err := tx.ExecContext(ctx, q, status, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auctionerrors.ErrOfferNotPending
	}
	return nil
}

// ListByAuctionTx returns every offer of an auction ordered by rank.
func (r *OfferRepo) ListByAuctionTx(ctx context.Context, tx *sql.Tx, auctionID uint64) ([]model.Offer, error) {
	q := `SELECT ` + offerColumns + ` FROM auction_offers WHERE auction_id = ? ORDER BY offer_rank ASC`
	rows, err := tx.QueryContext(ctx, q, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

// ListExpiredPending returns PENDING offers whose response window closed,
// across all auctions.
func (r *OfferRepo) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]model.Offer, error) {
	q := `SELECT ` + offerColumns + ` FROM auction_offers
          WHERE status = 'PENDING' AND expires_at <= ?
          ORDER BY expires_at ASC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

// ListByUser returns the offers addressed to a user, newest first.
func (r *OfferRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Offer, error) {
	q := `SELECT ` + offerColumns + ` FROM auction_offers WHERE user_id = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

func collectOffers(rows *sql.Rows) ([]model.Offer, error) {
	offers := []model.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return offers, nil
}
