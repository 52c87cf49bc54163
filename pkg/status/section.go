package status

import "sync"

// Section names a dependent dashboard section gated by a reveal flag.
type Section string

// Section constants, one per reveal flag.
const (
	SectionStats          Section = "stats"
	SectionRevenueStreams Section = "revenue_streams"
	SectionRemixStreams   Section = "remix_streams"
)

// Label returns human-readable display text for the section.
func (s Section) Label() string {
	switch s {
	case SectionStats:
		return "stats"
	case SectionRevenueStreams:
		return "revenue streams"
	case SectionRemixStreams:
		return "remix streams"
	default:
		return string(s)
	}
}

// RevealFlags gates first-time display of the dependent sections.
type RevealFlags struct {
	Stats          bool `json:"stats"`
	RevenueStreams bool `json:"revenue_streams"`
	RemixStreams   bool `json:"remix_streams"`
}

// Get returns the flag for the given section.
func (f RevealFlags) Get(s Section) bool {
	switch s {
	case SectionStats:
		return f.Stats
	case SectionRevenueStreams:
		return f.RevenueStreams
	case SectionRemixStreams:
		return f.RemixStreams
	default:
		return false
	}
}

// RevealHolder stores reveal flags; each flag can be set once until Clear.
type RevealHolder struct {
	mu    sync.RWMutex
	flags RevealFlags
}

// Reveal sets the flag for s. returns false if it was already set or s is unknown.
func (h *RevealHolder) Reveal(s Section) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	var field *bool
	switch s {
	case SectionStats:
		field = &h.flags.Stats
	case SectionRevenueStreams:
		field = &h.flags.RevenueStreams
	case SectionRemixStreams:
		field = &h.flags.RemixStreams
	default:
		return false
	}
	if *field {
		return false
	}
	*field = true
	return true
}

// Flags returns a copy of the current flags.
func (h *RevealHolder) Flags() RevealFlags {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.flags
}

// Clear resets all flags to false.
func (h *RevealHolder) Clear() {
	h.mu.Lock()
	h.flags = RevealFlags{}
	h.mu.Unlock()
}
