package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
	"github.com/iliyamo/live-auction/internal/model"
)

// memDB is an in-memory stand-in for MySQL.  RunInTx holds txMu for the
// whole transaction, which gives the same serialization as the auction row
// lock, and restores a snapshot when fn fails.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID       uint64
	auctions     map[uint64]model.Auction
	assets       map[uint64]int
	bids         []model.Bid
	participants map[[2]uint64]model.Participant
	offers       []model.Offer
	payments     []model.Payment
	critical     []model.CriticalUserLog
}

func newMemDB() *memDB {
	return &memDB{
		auctions:     map[uint64]model.Auction{},
		assets:       map[uint64]int{},
		participants: map[[2]uint64]model.Participant{},
	}
}

type memSnapshot struct {
	nextID       uint64
	auctions     map[uint64]model.Auction
	assets       map[uint64]int
	bids         []model.Bid
	participants map[[2]uint64]model.Participant
	offers       []model.Offer
	payments     []model.Payment
	critical     []model.CriticalUserLog
}

func (m *memDB) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := memSnapshot{
		nextID:       m.nextID,
		auctions:     make(map[uint64]model.Auction, len(m.auctions)),
		assets:       make(map[uint64]int, len(m.assets)),
		bids:         append([]model.Bid(nil), m.bids...),
		participants: make(map[[2]uint64]model.Participant, len(m.participants)),
		offers:       append([]model.Offer(nil), m.offers...),
		payments:     append([]model.Payment(nil), m.payments...),
		critical:     append([]model.CriticalUserLog(nil), m.critical...),
	}
	for k, v := range m.auctions {
		s.auctions[k] = v
	}
	for k, v := range m.assets {
		s.assets[k] = v
	}
	for k, v := range m.participants {
		s.participants[k] = v
	}
	return s
}

func (m *memDB) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID, m.auctions, m.assets, m.bids = s.nextID, s.auctions, s.assets, s.bids
	m.participants, m.offers, m.payments, m.critical = s.participants, s.offers, s.payments, s.critical
}

func (m *memDB) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	snap := m.snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.restore(snap)
			panic(p)
		}
		if err != nil {
			m.restore(snap)
		}
	}()
	return fn(nil)
}

// copyAuction detaches pointer fields so callers never alias stored rows.
func copyAuction(a model.Auction) *model.Auction {
	if a.WinnerID != nil {
		w := *a.WinnerID
		a.WinnerID = &w
	}
	if a.WinnerPaymentDeadline != nil {
		d := *a.WinnerPaymentDeadline
		a.WinnerPaymentDeadline = &d
	}
	return &a
}

// seed helpers

func (m *memDB) putAuction(a model.Auction) *model.Auction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.id()
	}
	m.auctions[a.ID] = *copyAuction(a)
	return copyAuction(a)
}

func (m *memDB) auction(id uint64) model.Auction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *copyAuction(m.auctions[id])
}

func (m *memDB) join(auctionID, userID uint64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[[2]uint64{auctionID, userID}] = model.Participant{AuctionID: auctionID, UserID: userID, JoinedAt: at}
}

func (m *memDB) addBid(auctionID, userID uint64, amount string, at time.Time) model.Bid {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := model.Bid{ID: m.id(), AuctionID: auctionID, UserID: userID, Amount: dec(amount), IsValid: true, CreatedAt: at}
	m.bids = append(m.bids, b)
	return b
}

func (m *memDB) bidsOf(auctionID uint64) []model.Bid {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Bid
	for _, b := range m.bids {
		if b.AuctionID == auctionID {
			out = append(out, b)
		}
	}
	return out
}

func (m *memDB) offersOf(auctionID uint64) []model.Offer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Offer
	for _, o := range m.offers {
		if o.AuctionID == auctionID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OfferRank < out[j].OfferRank })
	return out
}

func (m *memDB) paymentsOf(auctionID uint64) []model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Payment
	for _, p := range m.payments {
		if p.AuctionID == auctionID {
			out = append(out, p)
		}
	}
	return out
}

func (m *memDB) criticalLogs() []model.CriticalUserLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.CriticalUserLog(nil), m.critical...)
}

// AuctionStore

type memAuctions struct{ *memDB }

func (m memAuctions) Create(_ context.Context, a *model.Auction) error {
	stored := m.putAuction(*a)
	a.ID = stored.ID
	return nil
}

func (m memAuctions) GetByID(_ context.Context, id uint64) (*model.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return nil, auctionerrors.ErrAuctionNotFound
	}
	return copyAuction(a), nil
}

func (m memAuctions) GetForUpdateTx(ctx context.Context, _ *sql.Tx, id uint64) (*model.Auction, error) {
	return m.GetByID(ctx, id)
}

func (m memAuctions) UpdateTx(_ context.Context, _ *sql.Tx, a *model.Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.auctions[a.ID]; !ok {
		return auctionerrors.ErrAuctionNotFound
	}
	m.auctions[a.ID] = *copyAuction(*a)
	return nil
}

func (m memAuctions) AddAssetTx(_ context.Context, _ *sql.Tx, asset *model.AuctionAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	asset.ID = m.id()
	m.assets[asset.AuctionID]++
	return nil
}

func (m memAuctions) CountAssetsTx(_ context.Context, _ *sql.Tx, auctionID uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assets[auctionID], nil
}

func (m memAuctions) ListDueForEnd(_ context.Context, now time.Time, limit int) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uint64
	for id, a := range m.auctions {
		if a.Status == model.AuctionActive && !a.IsPaused && !a.EndAt.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m memAuctions) ListPaymentOverdue(_ context.Context, now time.Time, limit int) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uint64
	for id, a := range m.auctions {
		a := a
		if a.PaymentOverdue(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// BidStore

type memBids struct{ *memDB }

func (m memBids) CreateTx(_ context.Context, _ *sql.Tx, b *model.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.id()
	b.IsValid = true
	m.bids = append(m.bids, *b)
	return nil
}

func (m memBids) HighestValidTx(_ context.Context, _ *sql.Tx, auctionID uint64) (*model.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var top *model.Bid
	for i := range m.bids {
		b := m.bids[i]
		if b.AuctionID != auctionID || !b.IsValid {
			continue
		}
		if top == nil || b.Amount.GreaterThan(top.Amount) || (b.Amount.Equal(top.Amount) && b.ID < top.ID) {
			top = &b
		}
	}
	return top, nil
}

func (m memBids) InvalidateByUserTx(_ context.Context, _ *sql.Tx, auctionID, userID uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.bids {
		if m.bids[i].AuctionID == auctionID && m.bids[i].UserID == userID && m.bids[i].IsValid {
			m.bids[i].IsValid = false
			n++
		}
	}
	return n, nil
}

func (m memBids) ValidBidsTx(_ context.Context, _ *sql.Tx, auctionID uint64) ([]model.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Bid
	for _, b := range m.bids {
		if b.AuctionID == auctionID && b.IsValid {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ParticipantStore

type memParticipants struct{ *memDB }

func (m memParticipants) Get(_ context.Context, auctionID, userID uint64) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[[2]uint64{auctionID, userID}]
	if !ok {
		return nil, auctionerrors.ErrParticipantNotFound
	}
	return &p, nil
}

func (m memParticipants) Join(_ context.Context, auctionID, userID uint64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]uint64{auctionID, userID}
	if _, ok := m.participants[k]; !ok {
		m.participants[k] = model.Participant{AuctionID: auctionID, UserID: userID, JoinedAt: at}
	}
	return nil
}

func (m memParticipants) RevokeTx(_ context.Context, _ *sql.Tx, auctionID, userID uint64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]uint64{auctionID, userID}
	p, ok := m.participants[k]
	if !ok {
		p = model.Participant{AuctionID: auctionID, UserID: userID, JoinedAt: at}
	}
	t := at
	p.RevokedAt = &t
	m.participants[k] = p
	return nil
}

func (m memParticipants) UnrevokeTx(_ context.Context, _ *sql.Tx, auctionID, userID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]uint64{auctionID, userID}
	p, ok := m.participants[k]
	if !ok || p.RevokedAt == nil {
		return false, nil
	}
	p.RevokedAt = nil
	m.participants[k] = p
	return true, nil
}

// OfferStore

type memOffers struct{ *memDB }

func (m memOffers) CreateTx(_ context.Context, _ *sql.Tx, o *model.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.id()
	m.offers = append(m.offers, *o)
	return nil
}

func (m memOffers) GetByID(_ context.Context, id uint64) (*model.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.offers {
		if o.ID == id {
			o := o
			return &o, nil
		}
	}
	return nil, auctionerrors.ErrOfferNotFound
}

func (m memOffers) GetForUpdateTx(ctx context.Context, _ *sql.Tx, id uint64) (*model.Offer, error) {
	return m.GetByID(ctx, id)
}

func (m memOffers) UpdateStatusTx(_ context.Context, _ *sql.Tx, id uint64, status model.OfferStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.offers {
		if m.offers[i].ID == id && m.offers[i].Status == model.OfferPending {
			t := at
			m.offers[i].Status = status
			m.offers[i].RespondedAt = &t
			return nil
		}
	}
	return auctionerrors.ErrOfferNotPending
}

func (m memOffers) ListByAuctionTx(_ context.Context, _ *sql.Tx, auctionID uint64) ([]model.Offer, error) {
	return m.offersOf(auctionID), nil
}

func (m memOffers) ListExpiredPending(_ context.Context, now time.Time, limit int) ([]model.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Offer
	for _, o := range m.offers {
		if o.Status == model.OfferPending && !now.Before(o.ExpiresAt) {
			out = append(out, o)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PaymentStore

type memPayments struct{ *memDB }

func (m memPayments) CreateTx(_ context.Context, _ *sql.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	m.payments = append(m.payments, *p)
	return nil
}

func (m memPayments) FailPendingTx(_ context.Context, _ *sql.Tx, auctionID, userID uint64, at time.Time) (int64, error) {
	return m.settle(auctionID, userID, model.PaymentFailed, at), nil
}

func (m memPayments) MarkPaidTx(_ context.Context, _ *sql.Tx, auctionID, userID uint64, at time.Time) (int64, error) {
	return m.settle(auctionID, userID, model.PaymentPaid, at), nil
}

func (m memPayments) settle(auctionID, userID uint64, status model.PaymentStatus, at time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.payments {
		p := &m.payments[i]
		if p.AuctionID == auctionID && p.UserID == userID && p.Status == model.PaymentPending {
			p.Status = status
			p.UpdatedAt = at
			n++
		}
	}
	return n
}

// UserStore

type memUsers struct{ *memDB }

func (m memUsers) MarkCriticalTx(_ context.Context, _ *sql.Tx, entry *model.CriticalUserLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.id()
	m.critical = append(m.critical, *entry)
	return nil
}

// memLocker is a non-blocking in-process lock with the Locker contract.
type memLocker struct {
	mu   sync.Mutex
	seq  int
	held map[string]string // key -> token
}

func newMemLocker() *memLocker { return &memLocker{held: map[string]string{}} }

func (l *memLocker) Acquire(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	l.seq++
	token := fmt.Sprintf("lease-%d", l.seq)
	l.held[key] = token
	return token, true, nil
}

func (l *memLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

func (l *memLocker) isHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// memGate records bid times against the service clock.
type memGate struct {
	mu   sync.Mutex
	now  func() time.Time
	last map[[2]uint64]time.Time
}

func newMemGate(now func() time.Time) *memGate {
	return &memGate{now: now, last: map[[2]uint64]time.Time{}}
}

func (g *memGate) SecondsSinceLastBid(_ context.Context, auctionID, userID uint64) (int64, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.last[[2]uint64{auctionID, userID}]
	if !ok {
		return 0, false, nil
	}
	return int64(g.now().Sub(t) / time.Second), true, nil
}

func (g *memGate) RecordBid(_ context.Context, auctionID, userID uint64, _ int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[[2]uint64{auctionID, userID}] = g.now()
	return nil
}

// recorder is an Emitter that keeps every entry.
type recorder struct {
	mu      sync.Mutex
	entries []model.Activity
}

func (r *recorder) Emit(entry model.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recorder) types() []model.ActivityType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ActivityType, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) has(typ model.ActivityType) bool {
	for _, t := range r.types() {
		if t == typ {
			return true
		}
	}
	return false
}
