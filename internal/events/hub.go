// Package events is an in-memory feed of dispatch activity for operator
// surfaces (admin API, watch TUI).
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Well-known feed event types.
const (
	TypePollBatch       = "poll.batch"
	TypeDispatchCommand = "dispatch.command"
	TypeDispatchListen  = "dispatch.listen"
	TypeDispatchDrop    = "dispatch.drop"
	TypeHandlerFailure  = "handler.failure"
	TypeResponseSent    = "response.sent"
	TypePluginState     = "plugin.state"
)

// Event is one feed entry. IDs are assigned by the hub and strictly increase.
type Event struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	At         time.Time `json:"at"`
	DispatchID string    `json:"dispatch_id,omitempty"`
	Plugin     string    `json:"plugin,omitempty"`
	ChatID     int64     `json:"chat_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// Hub is an in-memory pub/sub with a small ring buffer for late clients.
type Hub struct {
	nextID atomic.Int64

	mu    sync.Mutex
	ring  []Event
	start int
	size  int

	subs      map[int]chan Event
	nextSubID int
}

// NewHub creates a hub retaining the last capacity events.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		ring: make([]Event, capacity),
		subs: make(map[int]chan Event),
	}
}

// Publish stamps ev with an id and timestamp and fans it out. Slow
// subscribers are skipped rather than blocking the publisher.
func (h *Hub) Publish(ev Event) {
	ev.ID = h.nextID.Add(1)
	ev.At = time.Now().UTC()

	h.mu.Lock()
	h.pushLocked(ev)
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
}

// Subscribe registers a live feed. The returned cancel func must be called to
// release the subscription.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Event, 128)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// SnapshotSince returns buffered events with ID > lastID, oldest-first.
// lastID 0 returns the full buffer.
func (h *Hub) SnapshotSince(lastID int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, 0, h.size)
	for i := 0; i < h.size; i++ {
		ev := h.ring[(h.start+i)%len(h.ring)]
		if lastID == 0 || ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

func (h *Hub) pushLocked(ev Event) {
	capacity := len(h.ring)
	if h.size < capacity {
		h.ring[(h.start+h.size)%capacity] = ev
		h.size++
		return
	}

	// Overwrite oldest.
	h.ring[h.start] = ev
	h.start = (h.start + 1) % capacity
}
