// Package sequencer drives the scripted demo timeline. a run walks the phases
// protecting -> protected -> earning -> claiming|completed, reveals dashboard sections
// and shows license-specific notifications, all from a declarative schedule of timers.
package sequencer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ipkit/royaltydemo/pkg/status"
)

// ErrNotClaimable is returned by Claim outside the claiming phase.
var ErrNotClaimable = errors.New("royalties are not claimable")

// Config holds sequencer configuration.
type Config struct {
	Timings  Timings
	Clock    Clock         // nil uses RealClock
	NewRunID func() string // nil uses uuid
}

// Snapshot is a read-only copy of the sequencer state.
type Snapshot struct {
	RunID     string             `json:"run_id"`
	License   status.License     `json:"license"`
	Phase     status.Phase       `json:"phase"`
	Reveals   status.RevealFlags `json:"reveals"`
	Events    []ScheduledEvent   `json:"events"`
	Visible   []ScheduledEvent   `json:"visible"`
	StartedAt time.Time          `json:"started_at,omitzero"`
	EarningAt time.Time          `json:"earning_at,omitzero"`
}

// Sequencer owns phase, reveal flags and event queue of the current run.
// every deferred action is tagged with its run id and does nothing once the run is replaced or reset.
type Sequencer struct {
	timings  Timings
	clock    Clock
	newRunID func() string
	listener Listener

	mu        sync.Mutex
	runID     string
	license   status.License
	phase     status.PhaseHolder
	reveals   status.RevealHolder
	queue     *Queue
	timers    []Timer
	startedAt time.Time
	earningAt time.Time
	pending   []func()

	emitMu sync.Mutex
}

// New makes a sequencer. listener may be nil.
func New(cfg Config, listener Listener) *Sequencer {
	s := &Sequencer{
		timings:  cfg.Timings.withDefaults(),
		clock:    cfg.Clock,
		newRunID: cfg.NewRunID,
		listener: listener,
		queue:    NewQueue(),
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.newRunID == nil {
		s.newRunID = uuid.NewString
	}
	if s.listener == nil {
		s.listener = NopListener{}
	}
	return s
}

// Timings returns the effective durations.
func (s *Sequencer) Timings() Timings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timings
}

// SetTimings replaces the durations. the running run keeps its schedule, the change
// applies from the next Start.
func (s *Sequencer) SetTimings(t Timings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timings = t.withDefaults()
}

// Start begins a new run for the license and returns its id. any previous run is
// invalidated: its pending timers are stopped and late callbacks are ignored.
func (s *Sequencer) Start(license status.License) string {
	s.mu.Lock()
	s.stopTimersLocked()

	run := s.newRunID()
	s.runID = run
	s.license = license
	s.reveals.Clear()
	s.queue.Clear()
	s.startedAt = s.clock.Now()
	s.earningAt = time.Time{}
	if old := s.phase.Set(status.PhaseInitial); old != status.PhaseInitial {
		s.notifyLocked(func() { s.listener.PhaseChanged(run, old, status.PhaseInitial) })
	}
	s.notifyLocked(func() { s.listener.RunStarted(run, license) })

	tl := s.timings.TimelineFor(license)
	for _, step := range s.timings.Schedule(license) {
		if step.At == 0 {
			s.applyLocked(run, step, tl)
			continue
		}
		s.scheduleLocked(run, step, tl)
	}
	s.mu.Unlock()

	s.flush()
	return run
}

// Claim moves a run waiting in claiming to claimed.
func (s *Sequencer) Claim() error {
	s.mu.Lock()
	cur := s.phase.Get()
	if !s.phase.CompareAndSet(status.PhaseClaiming, status.PhaseClaimed) {
		s.mu.Unlock()
		return fmt.Errorf("%w: phase is %s", ErrNotClaimable, cur)
	}
	run := s.runID
	s.notifyLocked(func() { s.listener.PhaseChanged(run, status.PhaseClaiming, status.PhaseClaimed) })
	s.mu.Unlock()

	s.flush()
	return nil
}

// Reset returns to initial from any phase, clearing flags and queue
// and invalidating every pending timer.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	s.stopTimersLocked()

	run := s.runID
	s.runID = ""
	s.license = status.LicenseNone
	s.reveals.Clear()
	s.queue.Clear()
	s.startedAt = time.Time{}
	s.earningAt = time.Time{}
	old := s.phase.Set(status.PhaseInitial)

	s.notifyLocked(func() { s.listener.RunReset(run) })
	if old != status.PhaseInitial {
		s.notifyLocked(func() { s.listener.PhaseChanged(run, old, status.PhaseInitial) })
	}
	s.mu.Unlock()

	s.flush()
}

// Phase returns the current phase.
func (s *Sequencer) Phase() status.Phase {
	return s.phase.Get()
}

// Snapshot returns a copy of the current state.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		RunID:     s.runID,
		License:   s.license,
		Phase:     s.phase.Get(),
		Reveals:   s.reveals.Flags(),
		Events:    s.queue.All(),
		Visible:   s.queue.Visible(),
		StartedAt: s.startedAt,
		EarningAt: s.earningAt,
	}
}

// scheduleLocked arms a timer for the step. must be called with lock held.
func (s *Sequencer) scheduleLocked(run string, step Step, tl Timeline) {
	t := s.clock.AfterFunc(step.At, func() { s.fire(run, step, tl) })
	s.timers = append(s.timers, t)
}

// fire runs a step if its run is still current.
func (s *Sequencer) fire(run string, step Step, tl Timeline) {
	s.mu.Lock()
	if run != s.runID {
		s.notifyLocked(func() { s.listener.StaleCallback(run) })
	} else {
		s.applyLocked(run, step, tl)
	}
	s.mu.Unlock()

	s.flush()
}

// applyLocked performs a schedule step. must be called with lock held.
func (s *Sequencer) applyLocked(run string, step Step, tl Timeline) {
	switch step.Action {
	case ActionPhase:
		if !s.phase.CompareAndSet(step.From, step.Phase) {
			return // out of order, never skip a phase
		}
		if step.Phase == status.PhaseEarning {
			s.earningAt = s.clock.Now()
			events := make([]ScheduledEvent, 0, len(tl.Events))
			for _, e := range tl.Events {
				events = append(events, e.scheduled())
			}
			s.queue.Load(events)
		}
		s.notifyLocked(func() { s.listener.PhaseChanged(run, step.From, step.Phase) })
	case ActionReveal:
		if s.reveals.Reveal(step.Section) {
			s.notifyLocked(func() { s.listener.SectionRevealed(run, step.Section) })
		}
	case ActionShow:
		if ev, ok := s.queue.Show(step.Event.ID); ok {
			s.notifyLocked(func() { s.listener.EventShown(run, ev) })
		}
	case ActionDismiss:
		if ev, ok := s.queue.Discard(step.Event.ID); ok {
			s.notifyLocked(func() { s.listener.EventDismissed(run, ev) })
		}
	}
}

// stopTimersLocked cancels every pending timer. must be called with lock held.
func (s *Sequencer) stopTimersLocked() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

// notifyLocked queues a listener callback. must be called with lock held.
func (s *Sequencer) notifyLocked(fn func()) {
	s.pending = append(s.pending, fn)
}

// flush delivers queued callbacks. only one goroutine delivers at a time; a caller that
// finds delivery in progress leaves its callbacks to the active deliverer.
func (s *Sequencer) flush() {
	for {
		if !s.emitMu.TryLock() {
			return
		}
		for {
			batch := s.takePending()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				fn()
			}
		}
		s.emitMu.Unlock()

		s.mu.Lock()
		more := len(s.pending) > 0
		s.mu.Unlock()
		if !more {
			return
		}
	}
}

func (s *Sequencer) takePending() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.pending
	s.pending = nil
	return batch
}
