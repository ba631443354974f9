package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/iliyamo/live-auction/internal/model"
)

// ActivityRepo stores the auction audit trail.  Entries are written after
// the business transaction committed, so a failed insert never affects the
// auction itself.
type ActivityRepo struct {
	db *sql.DB
}

// NewActivityRepo constructs an ActivityRepo with the given DB handle.
func NewActivityRepo(db *sql.DB) *ActivityRepo {
	if db == nil {
		panic("repository: nil db")
	}
	return &ActivityRepo{db: db}
}

// Insert appends one entry.  The entry ID is generated by the producer so a
// redelivered broker message is stored once.
func (r *ActivityRepo) Insert(ctx context.Context, a *model.Activity) error {
	var meta []byte
	if len(a.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(a.Metadata); err != nil {
			return err
		}
	}
	var actor any
	if a.ActorID != nil {
		actor = *a.ActorID
	}
	const q = `INSERT IGNORE INTO activity_logs (id, auction_id, type, description, actor_id, metadata, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, a.ID, a.AuctionID, a.Type, a.Description, actor, meta, a.CreatedAt)
	return err
}

// ListByAuction returns the newest entries of an auction first.
func (r *ActivityRepo) ListByAuction(ctx context.Context, auctionID uint64, limit int) ([]model.Activity, error) {
	const q = `SELECT id, auction_id, type, description, actor_id, metadata, created_at
               FROM activity_logs WHERE auction_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, auctionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Activity{}
	for rows.Next() {
		var (
			a     model.Activity
			actor sql.NullInt64
			meta  []byte
		)
		if err := rows.Scan(&a.ID, &a.AuctionID, &a.Type, &a.Description, &actor, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		if actor.Valid {
			id := uint64(actor.Int64)
			a.ActorID = &id
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &a.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
