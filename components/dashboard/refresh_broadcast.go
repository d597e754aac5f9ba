package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const subscriberBuffer = 8

// BroadcastHook fans out dashboard events and notifications to in-process
// subscribers. It satisfies both EventHook and Notifier.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

type subscriber struct {
	userID string
	ch     chan DashboardEvent
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{
		subs: make(map[int]subscriber),
	}
}

// DashboardUpdated satisfies EventHook. Slow subscribers miss events rather
// than blocking the publisher.
func (h *BroadcastHook) DashboardUpdated(_ context.Context, event DashboardEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.userID != "" && event.UserID != "" && sub.userID != event.UserID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

// Notify satisfies Notifier by broadcasting a notification event.
func (h *BroadcastHook) Notify(ctx context.Context, note Notification) {
	_ = h.DashboardUpdated(ctx, DashboardEvent{
		UserID:       note.UserID,
		Reason:       "notification",
		Notification: &note,
	})
}

// Subscribe returns a channel of events for userID and a cancel func. An
// empty userID receives every viewer's events and is meant for in-process
// consumers only; network streams always pass the resolved viewer.
func (h *BroadcastHook) Subscribe(userID string) (<-chan DashboardEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan DashboardEvent, subscriberBuffer)
	h.subs[id] = subscriber{userID: userID, ch: ch}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams userID's events as JSON.
// Callers resolve userID from the authenticated request; an empty id is
// rejected with 401 before the upgrade.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request, userID string) {
	if !requireStreamViewer(w, userID) {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe(userID)
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams userID's events as Server-Sent Events.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request, userID string) {
	if !requireStreamViewer(w, userID) {
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	events, cancel := h.Subscribe(userID)
	defer cancel()

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.Write([]byte("data: "))
			if err := encoder.Encode(event); err != nil {
				return
			}
			w.Write([]byte("\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func requireStreamViewer(w http.ResponseWriter, userID string) bool {
	if userID != "" {
		return true
	}
	http.Error(w, "viewer user id is required", http.StatusUnauthorized)
	return false
}
