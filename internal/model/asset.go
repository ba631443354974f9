package model

import "time"

// AuctionAsset references an uploaded image or document.  Storage and URL
// signing live in the object store service; only the key is kept here.
type AuctionAsset struct {
	ID         uint64    // auction_assets.id
	AuctionID  uint64    // auction_assets.auction_id
	StorageKey string    // auction_assets.storage_key
	CreatedAt  time.Time // auction_assets.created_at
}
