package web

import (
	"sync"
)

// DefaultClientBuffer is the per-client channel capacity. a full run emits a few dozen events,
// so a client only drops events when it stops reading.
const DefaultClientBuffer = 256

// Hub fans events out to SSE clients. a client that can't keep up loses events
// instead of stalling the others.
type Hub struct {
	size int

	mu      sync.RWMutex
	clients map[chan Event]*hubClient
}

type hubClient struct {
	dropped int
}

// NewHub makes a hub with size-buffered client channels, 0 uses DefaultClientBuffer.
func NewHub(size int) *Hub {
	if size <= 0 {
		size = DefaultClientBuffer
	}
	return &Hub{size: size, clients: map[chan Event]*hubClient{}}
}

// Subscribe registers a client, optionally pre-filled with backlog events.
// backlog beyond the channel capacity is cut from the front.
func (h *Hub) Subscribe(backlog ...Event) chan Event {
	if len(backlog) > h.size {
		backlog = backlog[len(backlog)-h.size:]
	}
	ch := make(chan Event, h.size)
	for _, e := range backlog {
		ch <- e
	}

	h.mu.Lock()
	h.clients[ch] = &hubClient{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch. unknown or already removed channels are ignored.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; !ok {
		return
	}
	delete(h.clients, ch)
	close(ch)
}

// Broadcast offers e to every client without blocking and returns how many clients missed it.
func (h *Hub) Broadcast(e Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	missed := 0
	for ch, c := range h.clients {
		select {
		case ch <- e:
		default:
			c.dropped++
			missed++
		}
	}
	return missed
}

// ClientCount returns the number of subscribed clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many events ch has missed so far.
func (h *Hub) Dropped(ch chan Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[ch]; ok {
		return c.dropped
	}
	return 0
}

// Close closes and removes every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		close(ch)
	}
	clear(h.clients)
}
