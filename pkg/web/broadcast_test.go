package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipkit/royaltydemo/pkg/sequencer"
	"github.com/ipkit/royaltydemo/pkg/sequencer/clocktest"
	"github.com/ipkit/royaltydemo/pkg/status"
	"github.com/ipkit/royaltydemo/pkg/wizard"
)

func eventTypes(events []Event) []EventType {
	res := make([]EventType, 0, len(events))
	for _, e := range events {
		res = append(res, e.Type)
	}
	return res
}

func TestBroadcastListener_CommercialRun(t *testing.T) {
	pub := NewPublisher(NewHub(0), NewBuffer(0))
	ch := pub.Subscribe()
	defer pub.Unsubscribe(ch)

	clock := clocktest.New()
	seq := sequencer.New(sequencer.Config{Clock: clock, NewRunID: func() string { return "run-1" }},
		NewBroadcastListener(pub, func() int { return 20 }))

	seq.Start(status.LicenseCommercial)
	clock.Advance(15 * time.Second)
	require.NoError(t, seq.Claim())

	all := pub.Buffer().All()
	require.NotEmpty(t, all)
	assert.Equal(t, EventTypeRun, all[0].Type)
	assert.Equal(t, "commercial", all[0].Text)
	assert.Equal(t, len(all), len(ch), "every buffered event was broadcast")

	var phases []status.Phase
	for _, e := range all {
		if e.Type == EventTypePhase {
			phases = append(phases, e.Phase)
		}
	}
	assert.Equal(t, []status.Phase{status.PhaseProtecting, status.PhaseProtected, status.PhaseEarning,
		status.PhaseClaiming, status.PhaseClaimed}, phases)

	last := all[len(all)-1]
	assert.Equal(t, EventTypeClaim, last.Type)
	assert.Equal(t, "$6,450", last.Text)

	reveals := 0
	for _, e := range all {
		if e.Type == EventTypeReveal {
			reveals++
			assert.Equal(t, status.PhaseEarning, e.Phase)
		}
	}
	assert.Equal(t, 3, reveals)
	assert.NotEmpty(t, pub.Buffer().ByPhase(status.PhaseEarning))
}

func TestBroadcastListener_ResetClearsReplay(t *testing.T) {
	pub := NewPublisher(NewHub(0), NewBuffer(0))
	clock := clocktest.New()
	seq := sequencer.New(sequencer.Config{Clock: clock}, NewBroadcastListener(pub, nil))

	seq.Start(status.LicenseOpenUse)
	clock.Advance(5 * time.Second)
	require.Greater(t, pub.Buffer().Count(), 3)

	seq.Reset()
	assert.Equal(t, []EventType{EventTypeReset, EventTypePhase}, eventTypes(pub.Buffer().All()))
	assert.Equal(t, status.PhaseInitial, pub.Buffer().All()[1].Phase)
}

func TestBroadcastListener_StaleNotPublished(t *testing.T) {
	pub := NewPublisher(NewHub(0), NewBuffer(0))
	l := NewBroadcastListener(pub, nil)
	l.StaleCallback("old-run")
	assert.Equal(t, 0, pub.Buffer().Count())
}

func TestPublisher_WizardChanged(t *testing.T) {
	pub := NewPublisher(NewHub(0), NewBuffer(0))
	pub.WizardChanged(wizard.View{Step: wizard.StepLicense})

	all := pub.Buffer().All()
	require.Len(t, all, 1)
	assert.Equal(t, EventTypeStep, all[0].Type)
	assert.Equal(t, 2, all[0].Step)
}

func TestPublisher_SubscribeReplaysHistoryOnce(t *testing.T) {
	pub := NewPublisher(NewHub(0), NewBuffer(0))
	pub.Publish(NewRunEvent("run-1", status.LicenseOpenUse))
	pub.Publish(NewPhaseEvent("run-1", status.PhaseInitial, status.PhaseProtecting))

	ch := pub.Subscribe()
	defer pub.Unsubscribe(ch)
	pub.Publish(NewPhaseEvent("run-1", status.PhaseProtecting, status.PhaseProtected))

	require.Len(t, ch, 3)
	got := []EventType{(<-ch).Type, (<-ch).Type, (<-ch).Type}
	assert.Equal(t, []EventType{EventTypeRun, EventTypePhase, EventTypePhase}, got)
	assert.Equal(t, 1, pub.Hub().ClientCount())
}
