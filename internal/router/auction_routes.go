package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-auction/internal/handler"
	"github.com/iliyamo/live-auction/internal/middleware"
)

// RegisterAuctions registers the authenticated auction endpoints under /v1.
// Sellers and bidders share the USER role; ownership is checked by the
// engine.  limiter is the HTTP token bucket.
func RegisterAuctions(e *echo.Echo, h *handler.AuctionHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleUser, middleware.RoleAdmin),
		limiter,
	)

	// seller
	g.POST("/auctions", h.CreateAuction)
	g.POST("/auctions/:id/assets", h.AddAsset)
	g.POST("/auctions/:id/publish", h.Publish)
	g.POST("/auctions/:id/pause", h.Pause)
	g.POST("/auctions/:id/resume", h.Resume)
	g.POST("/auctions/:id/cancel", h.Cancel)
	g.POST("/auctions/:id/end", h.End)
	g.POST("/auctions/:id/participants/:userId/revoke", h.Revoke)
	g.POST("/auctions/:id/participants/:userId/unrevoke", h.Unrevoke)

	// bidder
	g.POST("/auctions/:id/join", h.Join)
	g.POST("/auctions/:id/bids", h.PlaceBid)
	g.GET("/me/offers", h.MyOffers)
	g.POST("/offers/:id/respond", h.RespondToOffer)
}

// RegisterAdmin registers endpoints reserved to the ADMIN role, used by the
// payment gateway adapter.
func RegisterAdmin(e *echo.Echo, h *handler.AuctionHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)
	g.POST("/auctions/:id/payment-confirmed", h.ConfirmPayment)
}
