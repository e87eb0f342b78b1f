package integrity

import (
	"sync"
	"time"
)

// FocusHub fans browser-reported focus events out to subscribers. The web
// interface publishes visibilitychange and window blur events over the
// WebSocket; the monitor of the active attempt subscribes.
type FocusHub struct {
	mu   sync.Mutex
	subs map[int]chan FocusEvent
	next int
}

// NewFocusHub creates an empty hub.
func NewFocusHub() *FocusHub {
	return &FocusHub{subs: make(map[int]chan FocusEvent)}
}

// Publish delivers a focus loss event to all subscribers. Slow subscribers
// drop events rather than block the WebSocket reader.
func (h *FocusHub) Publish(kind FocusEventKind) {
	ev := FocusEvent{Kind: kind, At: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel of focus events and a cancel function that
// releases the subscription. The channel is closed on cancel.
func (h *FocusHub) Subscribe() (<-chan FocusEvent, func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	ch := make(chan FocusEvent, 8)
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}
