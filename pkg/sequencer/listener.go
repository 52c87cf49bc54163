package sequencer

import "github.com/ipkit/royaltydemo/pkg/status"

// Listener observes a sequencer. callbacks are delivered one at a time, in the order
// the state changed, and outside the sequencer lock, so listeners may call Snapshot.
// a listener calling Start, Claim or Reset gets its own callbacks after it returns.
type Listener interface {
	RunStarted(run string, license status.License)
	PhaseChanged(run string, old, cur status.Phase)
	SectionRevealed(run string, section status.Section)
	EventShown(run string, ev ScheduledEvent)
	EventDismissed(run string, ev ScheduledEvent)
	RunReset(run string)
	StaleCallback(run string)
}

// NopListener implements Listener with no-op methods, for embedding.
type NopListener struct{}

// RunStarted does nothing.
func (NopListener) RunStarted(string, status.License) {}

// PhaseChanged does nothing.
func (NopListener) PhaseChanged(string, status.Phase, status.Phase) {}

// SectionRevealed does nothing.
func (NopListener) SectionRevealed(string, status.Section) {}

// EventShown does nothing.
func (NopListener) EventShown(string, ScheduledEvent) {}

// EventDismissed does nothing.
func (NopListener) EventDismissed(string, ScheduledEvent) {}

// RunReset does nothing.
func (NopListener) RunReset(string) {}

// StaleCallback does nothing.
func (NopListener) StaleCallback(string) {}

// Listeners fans callbacks out to every listener in order.
type Listeners []Listener

// RunStarted forwards to all listeners.
func (ls Listeners) RunStarted(run string, license status.License) {
	for _, l := range ls {
		l.RunStarted(run, license)
	}
}

// PhaseChanged forwards to all listeners.
func (ls Listeners) PhaseChanged(run string, old, cur status.Phase) {
	for _, l := range ls {
		l.PhaseChanged(run, old, cur)
	}
}

// SectionRevealed forwards to all listeners.
func (ls Listeners) SectionRevealed(run string, section status.Section) {
	for _, l := range ls {
		l.SectionRevealed(run, section)
	}
}

// EventShown forwards to all listeners.
func (ls Listeners) EventShown(run string, ev ScheduledEvent) {
	for _, l := range ls {
		l.EventShown(run, ev)
	}
}

// EventDismissed forwards to all listeners.
func (ls Listeners) EventDismissed(run string, ev ScheduledEvent) {
	for _, l := range ls {
		l.EventDismissed(run, ev)
	}
}

// RunReset forwards to all listeners.
func (ls Listeners) RunReset(run string) {
	for _, l := range ls {
		l.RunReset(run)
	}
}

// StaleCallback forwards to all listeners.
func (ls Listeners) StaleCallback(run string) {
	for _, l := range ls {
		l.StaleCallback(run)
	}
}
