// Package web serves a live browser viewer for the mirrored display
package web

import (
	"sync"

	"k5mirror/engine"
)

// Hub fans decoded display frames out to connected viewer sockets. It is an
// engine.Sink, so it receives frame snapshots as events; nothing here ever
// reaches back into the engine's state.
type Hub struct {
	mu   sync.Mutex
	last []byte
	subs map[chan []byte]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan []byte]struct{})}
}

// Emit implements engine.Sink. Only frame updates are of interest here.
func (h *Hub) Emit(ev engine.Event) {
	switch e := ev.(type) {
	case engine.FullFrame:
		h.broadcast(e.Frame)
	case engine.DiffApplied:
		h.broadcast(e.Frame)
	}
}

func (h *Hub) broadcast(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = frame
	for ch := range h.subs {
		select {
		case ch <- frame:
		default:
			// Slow viewer: drop this frame rather than block the link.
		}
	}
}

// subscribe registers a viewer and primes it with the latest frame.
func (h *Hub) subscribe() chan []byte {
	ch := make(chan []byte, 4)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.last != nil {
		ch <- h.last
	}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}
