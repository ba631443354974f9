package model

import "time"

// Participant records that a user entered an auction room.  RevokedAt is a
// tombstone: a revoked user can neither rejoin nor bid until the seller
// clears it.
type Participant struct {
	AuctionID uint64     // auction_participants.auction_id
	UserID    uint64     // auction_participants.user_id
	JoinedAt  time.Time  // auction_participants.joined_at
	RevokedAt *time.Time // auction_participants.revoked_at (nullable)
}

// IsRevoked reports whether the tombstone is set.
func (p *Participant) IsRevoked() bool { return p.RevokedAt != nil }
