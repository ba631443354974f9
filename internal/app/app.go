// Package app wires configuration, storage and the auction engine into the
// object graph shared by the HTTP server and the sweeper binary.
package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/live-auction/internal/activity"
	"github.com/iliyamo/live-auction/internal/config"
	"github.com/iliyamo/live-auction/internal/cooldown"
	"github.com/iliyamo/live-auction/internal/database"
	"github.com/iliyamo/live-auction/internal/lock"
	"github.com/iliyamo/live-auction/internal/realtime"
	"github.com/iliyamo/live-auction/internal/repository"
	"github.com/iliyamo/live-auction/internal/service"
	"github.com/iliyamo/live-auction/internal/utils"
)

// App holds the long lived dependencies of a process.
type App struct {
	Cfg      config.Config
	DB       *sql.DB
	Redis    *redis.Client
	Auctions *repository.AuctionRepo
	Bids     *repository.BidRepo
	Offers   *repository.OfferRepo
	Activity *repository.ActivityRepo
	Hub      *realtime.Hub
	Service  *service.AuctionService

	dispatcher *activity.Dispatcher
	publisher  *activity.Publisher
}

// Build opens MySQL and Redis and assembles the engine.  When a broker URL
// is configured, activity entries are published to it and persisted by the
// consumer; otherwise they are written to the database directly.  Live
// websocket subscribers of this process are always fed in-process.
func Build(cfg config.Config) (*App, error) {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, err
	}
	rdb := config.NewRedisClient()
	if rdb == nil {
		_ = db.Close()
		return nil, errors.New("redis unreachable")
	}

	auctionCfg := config.LoadAuctionConfig()
	a := &App{
		Cfg:      cfg,
		DB:       db,
		Redis:    rdb,
		Auctions: repository.NewAuctionRepo(db),
		Bids:     repository.NewBidRepo(db),
		Offers:   repository.NewOfferRepo(db),
		Activity: repository.NewActivityRepo(db),
		Hub:      realtime.NewHub(),
	}

	var sink activity.Sink = activity.StoreSink{Store: a.Activity}
	if cfg.AMQPURL != "" {
		a.publisher = activity.NewPublisher(cfg.AMQPURL)
		sink = a.publisher
	}
	a.dispatcher = activity.NewDispatcher(activity.Fanout{sink, a.Hub}, auctionCfg.ActivityTimeout)

	a.Service = service.NewAuctionService(service.Deps{
		Tx:           database.NewStore(db),
		Auctions:     a.Auctions,
		Bids:         a.Bids,
		Participants: repository.NewParticipantRepo(db),
		Offers:       a.Offers,
		Payments:     repository.NewPaymentRepo(db),
		Users:        repository.NewUserRepo(db),
		Locker:       lock.NewRedisLocker(rdb),
		Cooldown:     cooldown.NewRedisGate(rdb, auctionCfg.CooldownTTLFloor),
		Activity:     a.dispatcher,
	}, auctionCfg)

	utils.Info("dependencies ready", map[string]any{
		"db_host":  cfg.DBHost,
		"db_name":  cfg.DBName,
		"activity": activityMode(cfg),
	})
	return a, nil
}

func activityMode(cfg config.Config) string {
	if cfg.AMQPURL != "" {
		return "amqp"
	}
	return "database"
}

// RunConsumer drains the activity queue into the audit trail until ctx is
// cancelled.  It returns immediately when no broker is configured.
func (a *App) RunConsumer(ctx context.Context) error {
	if a.Cfg.AMQPURL == "" {
		return nil
	}
	return activity.NewConsumer(a.Cfg.AMQPURL, activity.StoreSink{Store: a.Activity}).Run(ctx)
}

// RedisPinger adapts the Redis client to a readiness check.
type RedisPinger struct{ Client *redis.Client }

// PingContext reports whether Redis answers PING.
func (p RedisPinger) PingContext(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}

// Close waits for in-flight activity deliveries and releases connections.
func (a *App) Close() {
	a.dispatcher.Wait()
	if a.publisher != nil {
		a.publisher.Close()
	}
	if err := a.Redis.Close(); err != nil {
		utils.Warn("redis close failed", map[string]any{"error": err.Error()})
	}
	if err := a.DB.Close(); err != nil {
		utils.Warn("database close failed", map[string]any{"error": err.Error()})
	}
}
