package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// Join handles POST /v1/auctions/:id/join.  Joining twice returns the
// existing registration.
func (h *AuctionHandler) Join(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	auctionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	p, err := h.Engine.JoinAuction(c.Request().Context(), auctionID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"auction_id": p.AuctionID,
		"user_id":    p.UserID,
		"joined_at":  p.JoinedAt,
	})
}

// PlaceBid handles POST /v1/auctions/:id/bids with {"amount": "120.00"}.
// The amount may be sent as a JSON string or number.  A busy auction
// answers 409 with Retry-After; a cooldown answers 429.
func (h *AuctionHandler) PlaceBid(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	auctionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	var body struct {
		Amount *decimal.Decimal `json:"amount"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Amount == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount is required"})
	}
	res, err := h.Engine.PlaceBid(c.Request().Context(), auctionID, userID, *body.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"bid":             bidView(res.Bid),
		"current_price":   res.CurrentPrice.StringFixed(2),
		"end_at":          res.EndAt,
		"extended":        res.Extended,
		"extension_count": res.ExtensionCount,
	})
}

// Revoke handles POST /v1/auctions/:id/participants/:userId/revoke.
func (h *AuctionHandler) Revoke(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	auctionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	target, ok := pathID(c, "userId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	res, err := h.Engine.RevokeUser(c.Request().Context(), auctionID, sellerID, target)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bids_invalidated": res.BidsInvalidated,
		"old_price":        res.OldPrice.StringFixed(2),
		"new_price":        res.NewPrice.StringFixed(2),
		"price_changed":    res.PriceChanged,
	})
}

// Unrevoke handles POST /v1/auctions/:id/participants/:userId/unrevoke.
// Invalidated bids are not restored.
func (h *AuctionHandler) Unrevoke(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	auctionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	target, ok := pathID(c, "userId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if err := h.Engine.UnrevokeUser(c.Request().Context(), auctionID, sellerID, target); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
