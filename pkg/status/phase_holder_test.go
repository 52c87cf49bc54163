package status

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseHolder_SetGet(t *testing.T) {
	h := &PhaseHolder{}
	assert.Equal(t, PhaseInitial, h.Get())

	old := h.Set(PhaseProtecting)
	assert.Equal(t, PhaseInitial, old)
	assert.Equal(t, PhaseProtecting, h.Get())

	h.Set(PhaseProtected)
	assert.Equal(t, PhaseProtected, h.Get())
}

func TestPhaseHolder_OnChange_Fires(t *testing.T) {
	h := &PhaseHolder{}

	var captured []struct{ old, cur Phase }
	h.OnChange(func(old, cur Phase) {
		captured = append(captured, struct{ old, cur Phase }{old, cur})
	})

	h.Set(PhaseProtecting)
	h.Set(PhaseProtected)

	require.Len(t, captured, 2)
	assert.Equal(t, PhaseInitial, captured[0].old)
	assert.Equal(t, PhaseProtecting, captured[0].cur)
	assert.Equal(t, PhaseProtecting, captured[1].old)
	assert.Equal(t, PhaseProtected, captured[1].cur)
}

func TestPhaseHolder_OnChange_NotFiredOnSamePhase(t *testing.T) {
	h := &PhaseHolder{}

	callCount := 0
	h.OnChange(func(_, _ Phase) { callCount++ })

	h.Set(PhaseEarning)
	h.Set(PhaseEarning) // same phase - should not fire

	assert.Equal(t, 1, callCount)
}

func TestPhaseHolder_CompareAndSet(t *testing.T) {
	h := &PhaseHolder{}
	h.Set(PhaseEarning)

	assert.False(t, h.CompareAndSet(PhaseClaiming, PhaseClaimed))
	assert.Equal(t, PhaseEarning, h.Get())

	h.Set(PhaseClaiming)
	assert.True(t, h.CompareAndSet(PhaseClaiming, PhaseClaimed))
	assert.Equal(t, PhaseClaimed, h.Get())
}

func TestPhaseHolder_ConcurrentAccess(t *testing.T) {
	h := &PhaseHolder{}
	phases := []Phase{PhaseProtecting, PhaseProtected, PhaseEarning, PhaseClaiming, PhaseClaimed}

	var cbCount atomic.Int64
	h.OnChange(func(_, _ Phase) {
		_ = h.Get() // exercise read path from callback (deadlock risk if lock held)
		cbCount.Add(1)
	})

	start := make(chan struct{})
	var wg sync.WaitGroup

	workers := 32
	iters := 500
	for w := range workers {
		wg.Go(func() {
			<-start
			for i := range iters {
				h.Set(phases[(w+i)%len(phases)])
				h.Get()
			}
		})
	}

	close(start)
	wg.Wait()

	assert.Contains(t, phases, h.Get())
	assert.Positive(t, cbCount.Load())
}
