package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/live-auction/internal/app"
	"github.com/iliyamo/live-auction/internal/config"
	"github.com/iliyamo/live-auction/internal/handler"
	"github.com/iliyamo/live-auction/internal/middleware"
	"github.com/iliyamo/live-auction/internal/router"
	"github.com/iliyamo/live-auction/internal/utils"
)

func main() {
	cfg := config.Load() // Load environment config
	utils.SetLogLevel(cfg.LogLevel)

	a, err := app.Build(cfg)
	if err != nil {
		utils.Fatal("startup failed", map[string]any{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := a.RunConsumer(ctx); err != nil && !errors.Is(err, context.Canceled) {
			utils.Error("activity consumer stopped", map[string]any{"error": err.Error()})
		}
	}()

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	router.RegisterRoutes(e, handler.Ready(map[string]handler.Pinger{
		"mysql": a.DB,
		"redis": app.RedisPinger{Client: a.Redis},
	}))
	router.RegisterPublic(e, &handler.PublicHandler{
		Auctions: a.Auctions,
		Bids:     a.Bids,
		Activity: a.Activity,
		Stream:   a.Hub,
	}, middleware.NewRedisCache(config.LoadCacheConfig(), a.Redis))

	h := handler.NewAuctionHandler(a.Service, a.Offers)
	router.RegisterAuctions(e, h, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), a.Redis))
	router.RegisterAdmin(e, h, cfg.JWTSecret)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		utils.Info("listening", map[string]any{"addr": addr, "env": cfg.Env})
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("server failed", map[string]any{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	utils.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		utils.Error("http shutdown failed", map[string]any{"error": err.Error()})
	}
	a.Close()
}
