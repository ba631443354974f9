package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/live-auction/internal/model"
	"github.com/iliyamo/live-auction/internal/service"
)

// AuctionHandler serves the seller and bidder operations of an auction.
type AuctionHandler struct {
	Engine Engine
	Offers OfferReader
}

// NewAuctionHandler panics when a dependency is missing.
func NewAuctionHandler(engine Engine, offers OfferReader) *AuctionHandler {
	if engine == nil || offers == nil {
		panic("nil dependency passed to NewAuctionHandler")
	}
	return &AuctionHandler{Engine: engine, Offers: offers}
}

type createAuctionRequest struct {
	Title                     string          `json:"title"`
	StartPrice                decimal.Decimal `json:"start_price"`
	MinBidIncrement           decimal.Decimal `json:"min_bid_increment"`
	StartAt                   time.Time       `json:"start_at"`
	EndAt                     time.Time       `json:"end_at"`
	MaxExtensions             int             `json:"max_extensions"`
	AntiSnipeThresholdSeconds int             `json:"anti_snipe_threshold_seconds"`
	AntiSnipeExtensionSeconds int             `json:"anti_snipe_extension_seconds"`
	BidCooldownSeconds        int             `json:"bid_cooldown_seconds"`
}

// CreateAuction handles POST /v1/auctions.  The caller becomes the seller
// of a new DRAFT auction.
func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	a, err := h.Engine.CreateAuction(c.Request().Context(), sellerID, service.CreateAuctionParams{
		Title:                     req.Title,
		StartPrice:                req.StartPrice,
		MinBidIncrement:           req.MinBidIncrement,
		StartAt:                   req.StartAt,
		EndAt:                     req.EndAt,
		MaxExtensions:             req.MaxExtensions,
		AntiSnipeThresholdSeconds: req.AntiSnipeThresholdSeconds,
		AntiSnipeExtensionSeconds: req.AntiSnipeExtensionSeconds,
		BidCooldownSeconds:        req.BidCooldownSeconds,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, auctionView(a))
}

// AddAsset handles POST /v1/auctions/:id/assets with {"storage_key": "..."}.
// The upload itself goes to object storage; only the key is recorded.
func (h *AuctionHandler) AddAsset(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	auctionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	var body struct {
		StorageKey string `json:"storage_key"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	asset, err := h.Engine.AddAsset(c.Request().Context(), auctionID, sellerID, body.StorageKey)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":          asset.ID,
		"auction_id":  asset.AuctionID,
		"storage_key": asset.StorageKey,
		"created_at":  asset.CreatedAt,
	})
}

type sellerAction func(ctx context.Context, auctionID, sellerID uint64) (*model.Auction, error)

// sellerTransition runs one of the seller's state changes and returns the
// updated auction.
func (h *AuctionHandler) sellerTransition(c echo.Context, action sellerAction) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	auctionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	a, err := action(c.Request().Context(), auctionID, sellerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, auctionView(a))
}

// Publish handles POST /v1/auctions/:id/publish.
func (h *AuctionHandler) Publish(c echo.Context) error {
	return h.sellerTransition(c, h.Engine.Publish)
}

// Pause handles POST /v1/auctions/:id/pause.
func (h *AuctionHandler) Pause(c echo.Context) error {
	return h.sellerTransition(c, h.Engine.Pause)
}

// Resume handles POST /v1/auctions/:id/resume.
func (h *AuctionHandler) Resume(c echo.Context) error {
	return h.sellerTransition(c, h.Engine.Resume)
}

// Cancel handles POST /v1/auctions/:id/cancel.
func (h *AuctionHandler) Cancel(c echo.Context) error {
	return h.sellerTransition(c, h.Engine.Cancel)
}

// End handles POST /v1/auctions/:id/end, the seller's early close.  Ending
// an auction that already ended reports outcome "noop".
func (h *AuctionHandler) End(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	auctionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	res, err := h.Engine.EndAuction(c.Request().Context(), auctionID, sellerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"outcome": res.Outcome.String(),
		"auction": auctionView(res.Auction),
	})
}
