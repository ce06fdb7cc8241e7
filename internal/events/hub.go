package events

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	subscriberBuffer = 16
	writeWait        = 10 * time.Second
	pingPeriod       = 30 * time.Second
)

// Hub keeps per-video WebSocket subscribers and pushes events to them.
// Slow subscribers miss events rather than stall publishers.
type Hub struct {
	mu       sync.Mutex
	subs     map[string]map[chan Event]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHub(allowedOrigins []string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		subs:   make(map[string]map[chan Event]struct{}),
		logger: logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

func (h *Hub) Publish(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[event.VideoID] {
		select {
		case ch <- event:
		default:
			h.logger.Debug("dropping event for slow subscriber", "video_id", event.VideoID, "type", event.Type)
		}
	}
	return nil
}

// Subscribe registers a listener for videoID. The returned func unsubscribes
// and closes the channel.
func (h *Hub) Subscribe(videoID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[videoID] == nil {
		h.subs[videoID] = make(map[chan Event]struct{})
	}
	h.subs[videoID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[videoID], ch)
			if len(h.subs[videoID]) == 0 {
				delete(h.subs, videoID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers reports how many listeners videoID has.
func (h *Hub) Subscribers(videoID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[videoID])
}

// ServeWS upgrades the request and streams videoID's events until the
// client disconnects or ctx ends.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, videoID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "video_id", videoID, "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := h.Subscribe(videoID)
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("websocket write failed", "video_id", videoID, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
