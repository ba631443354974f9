package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks the obligation created when a winner is declared.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payment is the record handed to the external gateway adapter.  Order
// creation and signature checks happen outside this service; it only
// tracks who owes what and until when.
type Payment struct {
	ID        uint64          // payments.id
	AuctionID uint64          // payments.auction_id
	UserID    uint64          // payments.user_id
	Amount    decimal.Decimal // payments.amount
	Status    PaymentStatus   // payments.status
	DueAt     time.Time       // payments.due_at
	CreatedAt time.Time       // payments.created_at
	UpdatedAt time.Time       // payments.updated_at
}
