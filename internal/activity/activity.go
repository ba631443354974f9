// Package activity delivers auction audit entries to their sinks.  Entries
// are emitted after the business transaction committed and are best effort:
// a failed or slow sink is logged and never reaches the caller.
package activity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/live-auction/internal/metrics"
	"github.com/iliyamo/live-auction/internal/model"
	"github.com/iliyamo/live-auction/internal/utils"
)

//go:generate mockgen -destination=mock_sink_test.go -package=activity . Sink

// Sink receives one activity entry.
type Sink interface {
	LogActivity(ctx context.Context, entry model.Activity) error
}

// Dispatcher runs every entry against the sink on its own goroutine with a
// bounded timeout.  Emit never blocks and never fails.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewDispatcher wraps sink.  timeout bounds each delivery.
func NewDispatcher(sink Sink, timeout time.Duration) *Dispatcher {
	if sink == nil {
		panic("activity: nil sink")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{sink: sink, timeout: timeout, now: time.Now}
}

// Emit assigns an ID and a timestamp when missing and hands the entry to
// the sink in the background.
func (d *Dispatcher) Emit(entry model.Activity) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = d.now().UTC()
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.sink.LogActivity(ctx, entry); err != nil {
			metrics.Measures.ActivityDropped.Inc()
			utils.Warn("activity entry dropped", map[string]any{
				"auction_id": entry.AuctionID,
				"type":       entry.Type,
				"error":      err.Error(),
			})
		}
	}()
}

// Wait blocks until every emitted entry was delivered or dropped.  Called on
// shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Fanout delivers each entry to several sinks.  Every sink is tried; the
// returned error joins the failures.
type Fanout []Sink

// LogActivity implements Sink.
func (f Fanout) LogActivity(ctx context.Context, entry model.Activity) error {
	var errs []error
	for _, s := range f {
		if err := s.LogActivity(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Store is the persistence side of the audit trail.
type Store interface {
	Insert(ctx context.Context, a *model.Activity) error
}

// StoreSink writes entries straight to the database.  It is used when no
// broker is configured and by the broker consumer.
type StoreSink struct {
	Store Store
}

// LogActivity implements Sink.
func (s StoreSink) LogActivity(ctx context.Context, entry model.Activity) error {
	return s.Store.Insert(ctx, &entry)
}
