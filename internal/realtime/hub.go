// Package realtime pushes auction activity to connected websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iliyamo/live-auction/internal/model"
	"github.com/iliyamo/live-auction/internal/utils"
)

const (
	subscriberBuffer = 32
	pingInterval     = 30 * time.Second
	readTimeout      = 60 * time.Second
	writeTimeout     = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Browsers connect from the storefront origin; auth happens upstream.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type subscriber struct {
	events chan model.Activity
}

// Hub keeps one room per auction.  It is an activity sink: every entry is
// broadcast to the room of its auction.  A subscriber that cannot keep up
// misses entries instead of slowing the broadcaster down.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint64]map[*subscriber]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[uint64]map[*subscriber]struct{})}
}

// Subscribe joins the room of auctionID.  The returned cancel func leaves
// the room and closes the channel.
func (h *Hub) Subscribe(auctionID uint64) (<-chan model.Activity, func()) {
	s := &subscriber{events: make(chan model.Activity, subscriberBuffer)}
	h.mu.Lock()
	room, ok := h.rooms[auctionID]
	if !ok {
		room = make(map[*subscriber]struct{})
		h.rooms[auctionID] = room
	}
	room[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.events, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.rooms[auctionID], s)
			if len(h.rooms[auctionID]) == 0 {
				delete(h.rooms, auctionID)
			}
			h.mu.Unlock()
			close(s.events)
		})
	}
}

// Subscribers returns the room size of an auction.
func (h *Hub) Subscribers(auctionID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[auctionID])
}

// LogActivity implements activity.Sink.
func (h *Hub) LogActivity(_ context.Context, entry model.Activity) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.rooms[entry.AuctionID] {
		select {
		case s.events <- entry:
		default:
		}
	}
	return nil
}

// ServeWS upgrades the request and streams the auction's activity until
// the client goes away.  Client messages are read only to notice the
// close; the stream is one way.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, auctionID uint64) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	events, cancel := h.Subscribe(auctionID)
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return nil
		case entry, ok := <-events:
			if !ok {
				return nil
			}
			body, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
				utils.Debug("live stream write failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
