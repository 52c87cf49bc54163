// Package metrics exposes prometheus counters of demo runs and records them from
// sequencer callbacks.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ipkit/royaltydemo/pkg/sequencer"
	"github.com/ipkit/royaltydemo/pkg/status"
)

// claim results.
const (
	ClaimOK       = "ok"
	ClaimRejected = "rejected"
)

// Metrics holds the demo collectors.
type Metrics struct {
	RunsStarted      *prometheus.CounterVec
	PhaseTransitions *prometheus.CounterVec
	Claims           *prometheus.CounterVec
	StaleCallbacks   prometheus.Counter
	VisibleEvents    prometheus.Gauge
}

// New registers the collectors with reg. nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RunsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "royaltydemo_runs_started_total",
			Help: "Total number of demo runs started, by license",
		}, []string{"license"}),
		PhaseTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "royaltydemo_phase_transitions_total",
			Help: "Total number of phase transitions, by phase entered",
		}, []string{"phase"}),
		Claims: f.NewCounterVec(prometheus.CounterOpts{
			Name: "royaltydemo_claims_total",
			Help: "Total number of royalty claims, by result",
		}, []string{"result"}),
		StaleCallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "royaltydemo_stale_callbacks_total",
			Help: "Total number of timer callbacks ignored because their run was replaced or reset",
		}),
		VisibleEvents: f.NewGauge(prometheus.GaugeOpts{
			Name: "royaltydemo_visible_events",
			Help: "Number of notifications currently shown",
		}),
	}
}

// ObserveClaim counts a claim attempt.
func (m *Metrics) ObserveClaim(err error) {
	if err != nil {
		m.Claims.WithLabelValues(ClaimRejected).Inc()
		return
	}
	m.Claims.WithLabelValues(ClaimOK).Inc()
}

// Listener records sequencer callbacks into the collectors.
type Listener struct {
	sequencer.NopListener
	m *Metrics
}

// Listener returns a sequencer listener backed by m.
func (m *Metrics) Listener() *Listener {
	return &Listener{m: m}
}

// RunStarted counts the run and clears the visible gauge.
func (l *Listener) RunStarted(_ string, license status.License) {
	l.m.RunsStarted.WithLabelValues(license.String()).Inc()
	l.m.VisibleEvents.Set(0)
}

// PhaseChanged counts the entered phase.
func (l *Listener) PhaseChanged(_ string, _, cur status.Phase) {
	l.m.PhaseTransitions.WithLabelValues(string(cur)).Inc()
}

// EventShown increments the visible gauge.
func (l *Listener) EventShown(string, sequencer.ScheduledEvent) {
	l.m.VisibleEvents.Inc()
}

// EventDismissed decrements the visible gauge.
func (l *Listener) EventDismissed(string, sequencer.ScheduledEvent) {
	l.m.VisibleEvents.Dec()
}

// RunReset clears the visible gauge.
func (l *Listener) RunReset(string) {
	l.m.VisibleEvents.Set(0)
}

// StaleCallback counts an ignored timer callback.
func (l *Listener) StaleCallback(string) {
	l.m.StaleCallbacks.Inc()
}
