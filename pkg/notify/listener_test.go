package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipkit/royaltydemo/pkg/status"
)

type mockSender struct {
	mu      sync.Mutex
	results []Result
}

func (m *mockSender) Send(_ context.Context, r Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
}

func (m *mockSender) get() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Result(nil), m.results...)
}

func newTestListener(revShare func() int) (*Listener, *mockSender) {
	ms := &mockSender{}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	l := &Listener{svc: ms, revShare: revShare, now: func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * 15 * time.Second)
	}}
	return l, ms
}

func TestListener_ClaimedCommercial(t *testing.T) {
	l, ms := newTestListener(func() int { return 20 })
	l.RunStarted("run-1", status.LicenseCommercial)
	l.PhaseChanged("run-1", status.PhaseEarning, status.PhaseClaiming)
	l.PhaseChanged("run-1", status.PhaseClaiming, status.PhaseClaimed)
	l.Wait()

	res := ms.get()
	require.Len(t, res, 1)
	assert.Equal(t, Result{
		Status:    StatusClaimed,
		RunID:     "run-1",
		License:   "commercial",
		Title:     "Commercial Use",
		RevShare:  20,
		Revenue:   32250,
		Royalties: 6450,
		Remixes:   1370,
		Duration:  "15s",
	}, res[0])
}

func TestListener_CompletedOpen(t *testing.T) {
	l, ms := newTestListener(nil)
	l.RunStarted("run-2", status.LicenseNonCommercial)
	l.PhaseChanged("run-2", status.PhaseEarning, status.PhaseCompleted)
	l.Wait()

	res := ms.get()
	require.Len(t, res, 1)
	assert.Equal(t, StatusCompleted, res[0].Status)
	assert.Equal(t, 15, res[0].RevShare, "non-commercial uses the default rate")
	assert.Zero(t, res[0].Revenue)
	assert.Zero(t, res[0].Royalties)
}

func TestListener_IgnoresOtherRunsAndPhases(t *testing.T) {
	l, ms := newTestListener(nil)
	l.RunStarted("run-3", status.LicenseOpenUse)
	l.PhaseChanged("run-3", status.PhaseProtected, status.PhaseEarning)
	l.PhaseChanged("old-run", status.PhaseEarning, status.PhaseCompleted)
	l.Wait()
	assert.Empty(t, ms.get())
}

func TestListener_NilService(t *testing.T) {
	l := NewListener(nil, nil)
	l.RunStarted("run", status.LicenseOpenUse)
	l.PhaseChanged("run", status.PhaseEarning, status.PhaseCompleted)
	l.Wait()
	assert.Nil(t, l.svc)
}
