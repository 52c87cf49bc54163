package sequencer

import "sync"

// Position says where a notification is anchored on the dashboard.
type Position string

// Position constants.
const (
	PositionCenter  Position = "center"
	PositionStats   Position = "stats"
	PositionRevenue Position = "revenue"
	PositionRemix   Position = "remix"
)

// ScheduledEvent is a transient notification of a run. immutable once scheduled.
// DelayMs is measured from the start of earning.
type ScheduledEvent struct {
	ID       string   `json:"id" yaml:"id"`
	Message  string   `json:"message" yaml:"message"`
	Icon     string   `json:"icon" yaml:"icon"`
	Color    string   `json:"color" yaml:"color"`
	DelayMs  uint     `json:"delay_ms" yaml:"delay_ms"`
	Position Position `json:"position" yaml:"position"`
}

func (e EventSpec) scheduled() ScheduledEvent {
	return ScheduledEvent{
		ID:       e.Key,
		Message:  e.Message,
		Icon:     e.Icon,
		Color:    e.Color,
		DelayMs:  uint(e.Delay.Milliseconds()), //nolint:gosec // delays are positive literals
		Position: e.Position,
	}
}

// Queue is the ordered list of a run's notifications. events leave the queue
// once their display time is over.
type Queue struct {
	mu      sync.RWMutex
	events  []ScheduledEvent
	visible map[string]bool
}

// NewQueue makes an empty queue.
func NewQueue() *Queue {
	return &Queue{visible: make(map[string]bool)}
}

// Load replaces the queue content with events, all hidden.
func (q *Queue) Load(events []ScheduledEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append([]ScheduledEvent(nil), events...)
	q.visible = make(map[string]bool)
}

// Show marks the event visible. returns the event and false if it is not queued.
func (q *Queue) Show(id string) (ScheduledEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.events {
		if e.ID == id {
			q.visible[id] = true
			return e, true
		}
	}
	return ScheduledEvent{}, false
}

// Discard removes the event from the queue.
func (q *Queue) Discard(id string) (ScheduledEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.events {
		if e.ID == id {
			q.events = append(q.events[:i], q.events[i+1:]...)
			delete(q.visible, id)
			return e, true
		}
	}
	return ScheduledEvent{}, false
}

// All returns the queued events in delay order.
func (q *Queue) All() []ScheduledEvent {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if len(q.events) == 0 {
		return nil
	}
	res := make([]ScheduledEvent, len(q.events))
	copy(res, q.events)
	return res
}

// Visible returns the queued events currently shown, in delay order.
func (q *Queue) Visible() []ScheduledEvent {
	q.mu.RLock()
	defer q.mu.RUnlock()
	var res []ScheduledEvent
	for _, e := range q.events {
		if q.visible[e.ID] {
			res = append(res, e)
		}
	}
	return res
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.events)
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.Load(nil)
}
