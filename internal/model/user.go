package model

import "time"

// Severity of a critical user mark.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// CriticalUserLog is the audit row written whenever a user is flagged as
// critical.  The users.is_critical flag is the durable penalty; this row
// explains why.
type CriticalUserLog struct {
	ID        uint64    // critical_user_logs.id
	UserID    uint64    // critical_user_logs.user_id
	AuctionID uint64    // critical_user_logs.auction_id
	Reason    string    // critical_user_logs.reason
	Severity  Severity  // critical_user_logs.severity
	CreatedAt time.Time // critical_user_logs.created_at
}
