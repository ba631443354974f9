package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-auction/internal/model"
	"github.com/iliyamo/live-auction/internal/service"
)

// OfferReader lists a user's waterfall offers.
type OfferReader interface {
	ListByUser(ctx context.Context, userID uint64) ([]model.Offer, error)
}

// RespondToOffer handles POST /v1/offers/:id/respond with
// {"response": "ACCEPT"|"DECLINE"}.
func (h *AuctionHandler) RespondToOffer(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	offerID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid offer id"})
	}
	var body struct {
		Response string `json:"response"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	resp, err := service.ParseOfferResponse(body.Response)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.Engine.RespondToOffer(c.Request().Context(), offerID, userID, resp)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, settlementView(res))
}

// MyOffers handles GET /v1/me/offers.
func (h *AuctionHandler) MyOffers(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	offers, err := h.Offers.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]OfferView, 0, len(offers))
	for i := range offers {
		out = append(out, offerView(&offers[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ConfirmPayment handles POST /v1/admin/auctions/:id/payment-confirmed with
// {"user_id": N}.  The payment gateway adapter calls it after verifying the
// gateway's callback.
func (h *AuctionHandler) ConfirmPayment(c echo.Context) error {
	auctionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	var body struct {
		UserID uint64 `json:"user_id"`
	}
	if err := c.Bind(&body); err != nil || body.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}
	res, err := h.Engine.ConfirmPayment(c.Request().Context(), auctionID, body.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, settlementView(res))
}
