// Package handler exposes the auction engine over HTTP.  Handlers parse and
// validate input, call the engine and translate its errors; none of them
// touches auction state directly.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/live-auction/internal/auctionerrors"
	"github.com/iliyamo/live-auction/internal/middleware"
	"github.com/iliyamo/live-auction/internal/model"
	"github.com/iliyamo/live-auction/internal/service"
	"github.com/iliyamo/live-auction/internal/utils"
)

// Engine is the part of service.AuctionService the HTTP layer drives.
type Engine interface {
	CreateAuction(ctx context.Context, sellerID uint64, p service.CreateAuctionParams) (*model.Auction, error)
	AddAsset(ctx context.Context, auctionID, sellerID uint64, storageKey string) (*model.AuctionAsset, error)
	Publish(ctx context.Context, auctionID, sellerID uint64) (*model.Auction, error)
	Pause(ctx context.Context, auctionID, sellerID uint64) (*model.Auction, error)
	Resume(ctx context.Context, auctionID, sellerID uint64) (*model.Auction, error)
	Cancel(ctx context.Context, auctionID, sellerID uint64) (*model.Auction, error)
	EndAuction(ctx context.Context, auctionID, endedBy uint64) (*service.EndResult, error)
	JoinAuction(ctx context.Context, auctionID, userID uint64) (*model.Participant, error)
	PlaceBid(ctx context.Context, auctionID, userID uint64, amount decimal.Decimal) (*service.BidResult, error)
	RevokeUser(ctx context.Context, auctionID, actorID, userID uint64) (*service.RevokeResult, error)
	UnrevokeUser(ctx context.Context, auctionID, actorID, userID uint64) error
	RespondToOffer(ctx context.Context, offerID, userID uint64, response service.OfferResponse) (*service.Settlement, error)
	ConfirmPayment(ctx context.Context, auctionID, userID uint64) (*service.Settlement, error)
}

var _ Engine = (*service.AuctionService)(nil)

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// getUserID reads the caller set by middleware.JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errors.New("no authenticated user")
	}
	return id, nil
}

// respondError maps an engine error to a status code.  Infrastructure
// errors are logged and hidden from the client.
func respondError(c echo.Context, err error) error {
	var cd *auctionerrors.CooldownError
	if errors.As(err, &cd) {
		c.Response().Header().Set("Retry-After", strconv.FormatInt(cd.RemainingSeconds, 10))
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": err.Error(), "retry_after": cd.RemainingSeconds})
	}
	var low *auctionerrors.BidTooLowError
	if errors.As(err, &low) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "minimum_bid": low.Minimum.StringFixed(2)})
	}

	switch auctionerrors.Classify(err) {
	case auctionerrors.KindValidation:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case auctionerrors.KindContention:
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case auctionerrors.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case auctionerrors.KindForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case auctionerrors.KindRateLimited:
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": err.Error()})
	}
	utils.Error("request failed", map[string]any{
		"method": c.Request().Method,
		"path":   c.Path(),
		"error":  err.Error(),
	})
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
