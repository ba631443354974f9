package model

import "time"

// ActivityType names an entry of the auction audit trail.
type ActivityType string

const (
	ActivityAuctionCreated    ActivityType = "AUCTION_CREATED"
	ActivityAuctionPublished  ActivityType = "AUCTION_PUBLISHED"
	ActivityAuctionPaused     ActivityType = "AUCTION_PAUSED"
	ActivityAuctionResumed    ActivityType = "AUCTION_RESUMED"
	ActivityAuctionCancelled  ActivityType = "AUCTION_CANCELLED"
	ActivityAuctionEnded      ActivityType = "AUCTION_ENDED"
	ActivityAuctionExtended   ActivityType = "AUCTION_EXTENDED"
	ActivityBidPlaced         ActivityType = "BID_PLACED"
	ActivityParticipantJoined ActivityType = "PARTICIPANT_JOINED"
	ActivityUserRevoked       ActivityType = "USER_REVOKED"
	ActivityUserUnrevoked     ActivityType = "USER_UNREVOKED"
	ActivityPaymentExpired    ActivityType = "PAYMENT_EXPIRED"
	ActivityPaymentConfirmed  ActivityType = "PAYMENT_CONFIRMED"
	ActivityOfferCreated      ActivityType = "OFFER_CREATED"
	ActivityOfferAccepted     ActivityType = "OFFER_ACCEPTED"
	ActivityOfferDeclined     ActivityType = "OFFER_DECLINED"
	ActivityOfferExpired      ActivityType = "OFFER_EXPIRED"
	ActivitySettlementFailed  ActivityType = "SETTLEMENT_FAILED"
)

// Activity is one audit trail entry.  It doubles as the event delivered to
// live subscribers of the auction.
type Activity struct {
	ID          string         `json:"id"`
	AuctionID   uint64         `json:"auction_id"`
	Type        ActivityType   `json:"type"`
	Description string         `json:"description"`
	ActorID     *uint64        `json:"actor_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
