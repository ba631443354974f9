package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-auction/internal/model"
	"github.com/iliyamo/live-auction/internal/utils"
)

// AuctionReader is the read side of the auction repository.
type AuctionReader interface {
	List(ctx context.Context, status model.AuctionStatus, limit, offset int) ([]model.Auction, error)
	GetByID(ctx context.Context, id uint64) (*model.Auction, error)
}

// BidReader lists bids for display.
type BidReader interface {
	ListByAuction(ctx context.Context, auctionID uint64, limit int) ([]model.Bid, error)
}

// ActivityReader lists the persisted activity trail.
type ActivityReader interface {
	ListByAuction(ctx context.Context, auctionID uint64, limit int) ([]model.Activity, error)
}

// LiveStream serves the websocket event stream of one auction.
type LiveStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request, auctionID uint64) error
}

// PublicHandler serves unauthenticated reads.  They go straight to the
// repositories; nothing here changes state.
type PublicHandler struct {
	Auctions AuctionReader
	Bids     BidReader
	Activity ActivityReader
	Stream   LiveStream
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// queryInt parses an optional non-negative query parameter.
func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func pageSize(c echo.Context) (int, bool) {
	limit, ok := queryInt(c, "limit", defaultPageSize)
	if !ok {
		return 0, false
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, true
}

// ListAuctions handles GET /v1/auctions?status=ACTIVE&limit=20&offset=0.
// Without status every non-draft auction is listed.
func (h *PublicHandler) ListAuctions(c echo.Context) error {
	status := model.AuctionStatus(strings.ToUpper(c.QueryParam("status")))
	switch status {
	case "", model.AuctionActive, model.AuctionEnded, model.AuctionCancelled:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	limit, ok := pageSize(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid offset"})
	}
	auctions, err := h.Auctions.List(c.Request().Context(), status, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]AuctionView, 0, len(auctions))
	for i := range auctions {
		out = append(out, auctionView(&auctions[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// loadVisible fetches an auction that guests may see.  Drafts are hidden.
func (h *PublicHandler) loadVisible(c echo.Context) (*model.Auction, error) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid auction id"})
	}
	a, err := h.Auctions.GetByID(c.Request().Context(), id)
	if err == nil && a.Status == model.AuctionDraft {
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "auction not found"})
	}
	if err != nil {
		return nil, respondError(c, err)
	}
	return a, nil
}

// GetAuction handles GET /v1/auctions/:id.
func (h *PublicHandler) GetAuction(c echo.Context) error {
	a, err := h.loadVisible(c)
	if a == nil {
		return err
	}
	return c.JSON(http.StatusOK, auctionView(a))
}

// ListBids handles GET /v1/auctions/:id/bids, newest first.  Invalidated
// bids are included and flagged.
func (h *PublicHandler) ListBids(c echo.Context) error {
	a, err := h.loadVisible(c)
	if a == nil {
		return err
	}
	limit, ok := pageSize(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
	}
	bids, err := h.Bids.ListByAuction(c.Request().Context(), a.ID, limit)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]BidView, 0, len(bids))
	for _, b := range bids {
		out = append(out, bidView(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListActivity handles GET /v1/auctions/:id/activity, newest first.
func (h *PublicHandler) ListActivity(c echo.Context) error {
	a, err := h.loadVisible(c)
	if a == nil {
		return err
	}
	limit, ok := pageSize(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
	}
	entries, err := h.Activity.ListByAuction(c.Request().Context(), a.ID, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries})
}

// Live handles GET /v1/auctions/:id/live and upgrades to a websocket that
// streams the auction's activity entries as JSON.
func (h *PublicHandler) Live(c echo.Context) error {
	a, err := h.loadVisible(c)
	if a == nil {
		return err
	}
	// the upgrader already answered the client when this fails
	if err := h.Stream.ServeWS(c.Response(), c.Request(), a.ID); err != nil {
		utils.Debug("live stream upgrade failed", map[string]any{"auction_id": a.ID, "error": err.Error()})
	}
	return nil
}
