package status

import "sync"

// PhaseHolder stores the current demo phase in a thread-safe way.
// the zero value holds PhaseInitial.
type PhaseHolder struct {
	mu       sync.RWMutex
	phase    Phase
	onChange func(old, cur Phase)
}

// OnChange registers a callback that fires when the phase changes.
// only one callback is supported; subsequent calls replace the previous one.
func (h *PhaseHolder) OnChange(fn func(old, cur Phase)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// Set updates the current phase and fires the OnChange callback if the phase changed.
// returns the previous phase.
func (h *PhaseHolder) Set(p Phase) Phase {
	h.mu.Lock()
	old := h.get()
	h.phase = p
	cb := h.onChange
	h.mu.Unlock()

	if old != p && cb != nil {
		cb(old, p)
	}
	return old
}

// CompareAndSet moves to next only if the current phase is expected.
func (h *PhaseHolder) CompareAndSet(expected, next Phase) bool {
	h.mu.Lock()
	if h.get() != expected {
		h.mu.Unlock()
		return false
	}
	h.phase = next
	cb := h.onChange
	h.mu.Unlock()

	if expected != next && cb != nil {
		cb(expected, next)
	}
	return true
}

// Get returns the current phase.
func (h *PhaseHolder) Get() Phase {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.get()
}

func (h *PhaseHolder) get() Phase {
	if h.phase == "" {
		return PhaseInitial
	}
	return h.phase
}
