package config

import "time"

// AuctionConfig carries the tunables of the bidding and settlement engine.
// Per-auction settings (cooldown, anti-snipe window, max extensions) are
// stored on the auction row; these values are platform wide.
type AuctionConfig struct {
	BidLockTTL       time.Duration // TTL of the bid-lock:<auction> key
	PaymentWindow    time.Duration // time a declared winner has to pay
	OfferWindow      time.Duration // time a waterfall offer stays open
	MaxOfferRank     int           // last rank the waterfall may reach
	CooldownTTLFloor time.Duration // minimum lifetime of a cooldown entry
	ActivityTimeout  time.Duration // per-entry budget for activity sinks
}

// DefaultAuctionConfig returns the values used when nothing is configured.
func DefaultAuctionConfig() AuctionConfig {
	return AuctionConfig{
		BidLockTTL:       5 * time.Second,
		PaymentWindow:    24 * time.Hour,
		OfferWindow:      24 * time.Hour,
		MaxOfferRank:     5,
		CooldownTTLFloor: 120 * time.Second,
		ActivityTimeout:  5 * time.Second,
	}
}

// LoadAuctionConfig reads the engine tunables from the environment.
// Out of range values fall back to the defaults.
func LoadAuctionConfig() AuctionConfig {
	def := DefaultAuctionConfig()
	cfg := AuctionConfig{
		BidLockTTL:       envDur("BID_LOCK_TTL", def.BidLockTTL),
		PaymentWindow:    envDur("PAYMENT_WINDOW", def.PaymentWindow),
		OfferWindow:      envDur("OFFER_WINDOW", def.OfferWindow),
		MaxOfferRank:     envInt("MAX_OFFER_RANK", def.MaxOfferRank),
		CooldownTTLFloor: envDur("COOLDOWN_TTL_FLOOR", def.CooldownTTLFloor),
		ActivityTimeout:  envDur("ACTIVITY_TIMEOUT", def.ActivityTimeout),
	}
	if cfg.BidLockTTL <= 0 {
		cfg.BidLockTTL = def.BidLockTTL
	}
	if cfg.PaymentWindow <= 0 {
		cfg.PaymentWindow = def.PaymentWindow
	}
	if cfg.OfferWindow <= 0 {
		cfg.OfferWindow = def.OfferWindow
	}
	// rank 1 is the original winner, so at least one offer rank must exist
	if cfg.MaxOfferRank < 2 {
		cfg.MaxOfferRank = def.MaxOfferRank
	}
	if cfg.CooldownTTLFloor <= 0 {
		cfg.CooldownTTLFloor = def.CooldownTTLFloor
	}
	if cfg.ActivityTimeout <= 0 {
		cfg.ActivityTimeout = def.ActivityTimeout
	}
	return cfg
}

// SweeperConfig controls the scheduler that invokes the end, payment
// expiry and offer expiry sweeps.
type SweeperConfig struct {
	Interval time.Duration
	Batch    int
}

func LoadSweeperConfig() SweeperConfig {
	cfg := SweeperConfig{
		Interval: envDur("SWEEP_INTERVAL", 15*time.Second),
		Batch:    envInt("SWEEP_BATCH", 200),
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 200
	}
	return cfg
}
