package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-auction/internal/handler"
	"github.com/iliyamo/live-auction/internal/metrics"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// liveness, readiness and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready)
	}
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterPublic registers guest reads.  Only the auction list goes through
// the response cache; single auctions and bid lists must reflect the latest
// bid.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/auctions", p.ListAuctions, cache)
	e.GET("/v1/auctions/:id", p.GetAuction)
	e.GET("/v1/auctions/:id/bids", p.ListBids)
	e.GET("/v1/auctions/:id/activity", p.ListActivity)
	e.GET("/v1/auctions/:id/live", p.Live)
}
