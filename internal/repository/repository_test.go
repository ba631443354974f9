package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
	"github.com/iliyamo/live-auction/internal/model"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func auctionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "seller_id", "title", "start_price", "min_bid_increment", "current_price",
		"start_at", "end_at", "status", "is_paused", "winner_id", "winner_payment_deadline",
		"completion_status", "extension_count", "max_extensions", "anti_snipe_threshold_seconds",
		"anti_snipe_extension_seconds", "bid_cooldown_seconds", "created_at", "updated_at",
	})
}

func beginTx(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *sql.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return tx
}

func TestAuctionRepo_GetForUpdateTx(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAuctionRepo(db)
	tx := beginTx(t, db, mock)

	deadline := now.Add(24 * time.Hour)
	mock.ExpectQuery(`(?s)SELECT .+ FROM auctions WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(auctionRows().AddRow(
			7, 3, "Lamp", "100.00", "10.00", "130.00",
			now.Add(-time.Hour), now.Add(time.Hour), "ENDED", false, 42, deadline,
			"PENDING", 1, 3, 60, 120, 5, now, now,
		))

	a, err := repo.GetForUpdateTx(context.Background(), tx, 7)
	require.NoError(t, err)
	require.Equal(t, uint64(7), a.ID)
	require.Equal(t, model.AuctionEnded, a.Status)
	require.True(t, a.CurrentPrice.Equal(decimal.NewFromInt(130)))
	require.NotNil(t, a.WinnerID)
	require.Equal(t, uint64(42), *a.WinnerID)
	require.Equal(t, deadline, *a.WinnerPaymentDeadline)
	require.Equal(t, 1, a.ExtensionCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuctionRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAuctionRepo(db)

	mock.ExpectQuery(`(?s)SELECT .+ FROM auctions WHERE id = \?`).
		WithArgs(uint64(9)).
		WillReturnRows(auctionRows())

	_, err := repo.GetByID(context.Background(), 9)
	require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)
}

func TestAuctionRepo_UpdateTxClearsWinner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAuctionRepo(db)
	tx := beginTx(t, db, mock)

	a := &model.Auction{
		ID:               7,
		CurrentPrice:     decimal.NewFromInt(130),
		EndAt:            now,
		Status:           model.AuctionEnded,
		CompletionStatus: model.CompletionFailed,
		UpdatedAt:        now,
	}
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE auctions`)).
		WithArgs(sqlmock.AnyArg(), now, "ENDED", false, nil, nil, "FAILED", 0, now, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateTx(context.Background(), tx, a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuctionRepo_ListDueForEnd(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAuctionRepo(db)

	mock.ExpectQuery(`SELECT id FROM auctions\s+WHERE status = 'ACTIVE' AND is_paused = 0 AND end_at <= \?`).
		WithArgs(now, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(4))

	ids, err := repo.ListDueForEnd(context.Background(), now, 50)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 4}, ids)
}

func TestBidRepo_HighestValidTx(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBidRepo(db)
	tx := beginTx(t, db, mock)
	cols := []string{"id", "auction_id", "user_id", "amount", "is_valid", "created_at"}

	mock.ExpectQuery(`ORDER BY amount DESC, id ASC LIMIT 1`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(11, 7, 20, "120.00", true, now))
	b, err := repo.HighestValidTx(context.Background(), tx, 7)
	require.NoError(t, err)
	require.Equal(t, uint64(20), b.UserID)
	require.True(t, b.Amount.Equal(decimal.NewFromInt(120)))

	mock.ExpectQuery(`ORDER BY amount DESC, id ASC LIMIT 1`).
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(cols))
	b, err = repo.HighestValidTx(context.Background(), tx, 8)
	require.NoError(t, err)
	require.Nil(t, b)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBidRepo_InvalidateByUserTx(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBidRepo(db)
	tx := beginTx(t, db, mock)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bids SET is_valid = 0 WHERE auction_id = ? AND user_id = ? AND is_valid = 1`)).
		WithArgs(uint64(7), uint64(20)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.InvalidateByUserTx(context.Background(), tx, 7, 20)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestParticipantRepo_Get(t *testing.T) {
	db, mock := newMock(t)
	repo := NewParticipantRepo(db)
	cols := []string{"auction_id", "user_id", "joined_at", "revoked_at"}

	mock.ExpectQuery(`FROM auction_participants WHERE auction_id = \? AND user_id = \?`).
		WithArgs(uint64(7), uint64(20)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(7, 20, now, now))
	p, err := repo.Get(context.Background(), 7, 20)
	require.NoError(t, err)
	require.True(t, p.IsRevoked())

	mock.ExpectQuery(`FROM auction_participants`).
		WithArgs(uint64(7), uint64(21)).
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.Get(context.Background(), 7, 21)
	require.ErrorIs(t, err, auctionerrors.ErrParticipantNotFound)
}

func TestParticipantRepo_RevokeTxUpserts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewParticipantRepo(db)
	tx := beginTx(t, db, mock)

	mock.ExpectExec(`ON DUPLICATE KEY UPDATE revoked_at = VALUES\(revoked_at\)`).
		WithArgs(uint64(7), uint64(20), now, now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.RevokeTx(context.Background(), tx, 7, 20, now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepo_CreateTxDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOfferRepo(db)
	tx := beginTx(t, db, mock)

	mock.ExpectExec(`INSERT INTO auction_offers`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.CreateTx(context.Background(), tx, &model.Offer{AuctionID: 7, UserID: 20, OfferRank: 2, Status: model.OfferPending})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestOfferRepo_UpdateStatusTxNotPending(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOfferRepo(db)
	tx := beginTx(t, db, mock)

	mock.ExpectExec(`UPDATE auction_offers SET status = \?, responded_at = \? WHERE id = \? AND status = 'PENDING'`).
		WithArgs("DECLINED", now, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatusTx(context.Background(), tx, 5, model.OfferDeclined, now)
	require.ErrorIs(t, err, auctionerrors.ErrOfferNotPending)
}

func TestOfferRepo_UpdateStatusTxRowsAffectedError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOfferRepo(db)
	tx := beginTx(t, db, mock)

	boom := errors.New("driver: rows affected unavailable")
	mock.ExpectExec(`UPDATE auction_offers SET status = \?, responded_at = \? WHERE id = \? AND status = 'PENDING'`).
		WithArgs("ACCEPTED", now, uint64(5)).
		WillReturnResult(sqlmock.NewErrorResult(boom))

	err := repo.UpdateStatusTx(context.Background(), tx, 5, model.OfferAccepted, now)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, auctionerrors.ErrOfferNotPending)
}

func TestPaymentRepo_FailPendingTx(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentRepo(db)
	tx := beginTx(t, db, mock)

	mock.ExpectExec(`UPDATE payments SET status = \?, updated_at = \?`).
		WithArgs("FAILED", now, uint64(7), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.FailPendingTx(context.Background(), tx, 7, 42, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestUserRepo_MarkCriticalTx(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	tx := beginTx(t, db, mock)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET is_critical = 1 WHERE id = ?`)).
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO critical_user_logs`).
		WithArgs(uint64(42), uint64(7), "PAYMENT_DEADLINE_MISSED", "HIGH", now).
		WillReturnResult(sqlmock.NewResult(3, 1))

	entry := &model.CriticalUserLog{UserID: 42, AuctionID: 7, Reason: "PAYMENT_DEADLINE_MISSED", Severity: model.SeverityHigh, CreatedAt: now}
	require.NoError(t, repo.MarkCriticalTx(context.Background(), tx, entry))
	require.Equal(t, uint64(3), entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepo_InsertEncodesMetadata(t *testing.T) {
	db, mock := newMock(t)
	repo := NewActivityRepo(db)

	mock.ExpectExec(`INSERT IGNORE INTO activity_logs`).
		WithArgs("a1", uint64(7), "BID_PLACED", "bid placed", uint64(20), []byte(`{"amount":"120"}`), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	actor := uint64(20)
	err := repo.Insert(context.Background(), &model.Activity{
		ID:          "a1",
		AuctionID:   7,
		Type:        model.ActivityBidPlaced,
		Description: "bid placed",
		ActorID:     &actor,
		Metadata:    map[string]any{"amount": "120"},
		CreatedAt:   now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
