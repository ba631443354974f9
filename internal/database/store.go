package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Store is the transactional unit of work shared by all repositories.
// Repositories expose XxxTx methods taking the *sql.Tx handed to fn, so a
// single transaction can span auctions, bids, offers and payments.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for repositories that read outside a
// transaction.
func (s *Store) DB() *sql.DB { return s.db }

// RunInTx begins a transaction, runs fn and commits when fn returns nil.
// Any error from fn, or a panic, rolls the transaction back.  The error
// returned by fn is passed through unwrapped so callers can match it with
// errors.Is.
func (s *Store) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		_ = tx.Rollback()
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
