package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/live-auction/internal/model"
	"github.com/iliyamo/live-auction/internal/utils"
)

// Consumer drains the activity queue into the audit trail and fans each
// entry out to live sinks.  It reconnects with exponential backoff until
// its context is cancelled.
type Consumer struct {
	url  string
	sink Sink
	b    *backoff.Backoff
}

// NewConsumer returns a consumer for the broker at url that hands every
// entry to sink.
func NewConsumer(url string, sink Sink) *Consumer {
	if sink == nil {
		panic("activity: nil sink")
	}
	return &Consumer{
		url:  url,
		sink: sink,
		b:    &backoff.Backoff{Min: time.Second, Max: 30 * time.Second, Factor: 2, Jitter: true},
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			wait := c.b.Duration()
			utils.Warn("activity consumer: dial failed", map[string]any{"error": err.Error(), "retry_in": wait.String()})
			if !sleep(ctx, wait) {
				return ctx.Err()
			}
			continue
		}
		c.b.Reset()

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		utils.Warn("activity consumer: loop ended, reconnecting", map[string]any{"error": err.Error()})
		if !sleep(ctx, c.b.Duration()) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		utils.Warn("activity consumer: set QoS failed", map[string]any{"error": err.Error()})
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				utils.Error("activity consumer: handle message failed", map[string]any{"error": err.Error()})
				_ = d.Nack(false, false) // reject without requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var entry model.Activity
	if err := json.Unmarshal(body, &entry); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if entry.ID == "" || entry.AuctionID == 0 {
		return errors.New("entry without id or auction")
	}
	return c.sink.LogActivity(ctx, entry)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
