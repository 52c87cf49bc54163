// Package web serves the demo dashboard and streams sequencer state to browsers over SSE.
package web

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ipkit/royaltydemo/pkg/sequencer"
	"github.com/ipkit/royaltydemo/pkg/status"
)

// EventType represents the type of event being streamed.
type EventType string

// event type constants for SSE streaming.
const (
	EventTypeRun          EventType = "run"          // new run started, clients drop their state
	EventTypePhase        EventType = "phase"        // phase transition
	EventTypeReveal       EventType = "reveal"       // dashboard section revealed
	EventTypeNotification EventType = "notification" // notification shown
	EventTypeDismiss      EventType = "dismiss"      // notification dismissed
	EventTypeReset        EventType = "reset"        // run reset, clients drop their state
	EventTypeClaim        EventType = "claim"        // royalties claimed
	EventTypeStep         EventType = "step"         // wizard step or selection changed
)

// Event represents a single event to be streamed to web clients.
type Event struct {
	Type         EventType                 `json:"type"`
	RunID        string                    `json:"run_id,omitempty"`
	Phase        status.Phase              `json:"phase"`
	From         status.Phase              `json:"from,omitempty"`
	Section      status.Section            `json:"section,omitempty"`
	Notification *sequencer.ScheduledEvent `json:"notification,omitempty"`
	Step         int                       `json:"step,omitempty"`
	Text         string                    `json:"text,omitempty"`
	Timestamp    time.Time                 `json:"timestamp"`
}

// NewRunEvent creates a run start event.
func NewRunEvent(run string, license status.License) Event {
	return Event{Type: EventTypeRun, RunID: run, Phase: status.PhaseInitial, Text: string(license), Timestamp: time.Now()}
}

// NewPhaseEvent creates a phase transition event.
func NewPhaseEvent(run string, from, to status.Phase) Event {
	return Event{Type: EventTypePhase, RunID: run, Phase: to, From: from, Text: string(to), Timestamp: time.Now()}
}

// NewRevealEvent creates a section reveal event.
func NewRevealEvent(run string, phase status.Phase, section status.Section) Event {
	return Event{Type: EventTypeReveal, RunID: run, Phase: phase, Section: section,
		Text: section.Label(), Timestamp: time.Now()}
}

// NewNotificationEvent creates an event for a notification shown on the dashboard.
func NewNotificationEvent(run string, phase status.Phase, ev sequencer.ScheduledEvent) Event {
	return Event{Type: EventTypeNotification, RunID: run, Phase: phase, Notification: &ev,
		Text: ev.Message, Timestamp: time.Now()}
}

// NewDismissEvent creates an event for a notification leaving the dashboard.
func NewDismissEvent(run string, phase status.Phase, ev sequencer.ScheduledEvent) Event {
	return Event{Type: EventTypeDismiss, RunID: run, Phase: phase, Notification: &ev,
		Text: ev.ID, Timestamp: time.Now()}
}

// NewResetEvent creates a reset event.
func NewResetEvent(run string) Event {
	return Event{Type: EventTypeReset, RunID: run, Phase: status.PhaseInitial, Timestamp: time.Now()}
}

// NewClaimEvent creates a claim event carrying the claimed amount.
func NewClaimEvent(run, amount string) Event {
	return Event{Type: EventTypeClaim, RunID: run, Phase: status.PhaseClaimed, Text: amount, Timestamp: time.Now()}
}

// NewStepEvent creates a wizard step event.
func NewStepEvent(step int, phase status.Phase) Event {
	return Event{Type: EventTypeStep, Phase: phase, Step: step, Timestamp: time.Now()}
}

// JSON returns the event as JSON bytes for SSE streaming.
func (e Event) JSON() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}
