package web

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipkit/royaltydemo/pkg/status"
)

func phaseEvent(to status.Phase, text string) Event {
	e := NewPhaseEvent("run-1", status.PhaseInitial, to)
	e.Text = text
	return e
}

func texts(events []Event) []string {
	res := make([]string, 0, len(events))
	for _, e := range events {
		res = append(res, e.Text)
	}
	return res
}

func TestNewBuffer(t *testing.T) {
	assert.Equal(t, DefaultBufferSize, NewBuffer(0).maxSize)
	assert.Equal(t, 5, NewBuffer(5).maxSize)
	assert.Nil(t, NewBuffer(5).All())
}

func TestBuffer_AddAndAll(t *testing.T) {
	t.Run("keeps insertion order", func(t *testing.T) {
		b := NewBuffer(10)
		b.Add(phaseEvent(status.PhaseProtecting, "first"))
		b.Add(phaseEvent(status.PhaseProtected, "second"))
		assert.Equal(t, []string{"first", "second"}, texts(b.All()))
		assert.Equal(t, 2, b.Count())
	})

	t.Run("wraps and drops oldest", func(t *testing.T) {
		b := NewBuffer(3)
		for _, s := range []string{"a", "b", "c", "d", "e"} {
			b.Add(phaseEvent(status.PhaseEarning, s))
		}
		assert.Equal(t, []string{"c", "d", "e"}, texts(b.All()))
		assert.Equal(t, 3, b.Count())
		assert.Equal(t, []string{"c", "d", "e"}, texts(b.ByPhase(status.PhaseEarning)))
	})
}

func TestBuffer_ByPhase(t *testing.T) {
	t.Run("filters by phase", func(t *testing.T) {
		b := NewBuffer(10)
		b.Add(phaseEvent(status.PhaseProtecting, "p1"))
		b.Add(phaseEvent(status.PhaseEarning, "e1"))
		b.Add(phaseEvent(status.PhaseProtecting, "p2"))
		b.Add(phaseEvent(status.PhaseEarning, "e2"))

		assert.Equal(t, []string{"p1", "p2"}, texts(b.ByPhase(status.PhaseProtecting)))
		assert.Equal(t, []string{"e1", "e2"}, texts(b.ByPhase(status.PhaseEarning)))
		assert.Nil(t, b.ByPhase(status.PhaseClaimed))
	})

	t.Run("index follows wraparound", func(t *testing.T) {
		b := NewBuffer(3)
		b.Add(phaseEvent(status.PhaseProtecting, "p1"))
		b.Add(phaseEvent(status.PhaseEarning, "e1"))
		b.Add(phaseEvent(status.PhaseProtecting, "p2"))
		b.Add(phaseEvent(status.PhaseEarning, "e2")) // overwrites p1
		b.Add(phaseEvent(status.PhaseProtecting, "p3")) // overwrites e1

		assert.Equal(t, []string{"p2", "p3"}, texts(b.ByPhase(status.PhaseProtecting)))
		assert.Equal(t, []string{"e2"}, texts(b.ByPhase(status.PhaseEarning)))
	})
}

func TestBuffer_ResetClears(t *testing.T) {
	b := NewBuffer(10)
	b.Add(phaseEvent(status.PhaseProtecting, "p1"))
	b.Add(phaseEvent(status.PhaseEarning, "e1"))
	b.Add(NewResetEvent("run-1"))

	all := b.All()
	require.Len(t, all, 1)
	assert.Equal(t, EventTypeReset, all[0].Type)
	assert.Nil(t, b.ByPhase(status.PhaseEarning))

	b.Clear()
	assert.Equal(t, 0, b.Count())
	assert.Nil(t, b.All())
}

func TestBuffer_Concurrency(t *testing.T) {
	b := NewBuffer(100)
	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			for range 50 {
				b.Add(phaseEvent(status.PhaseEarning, "x"))
			}
		})
		wg.Go(func() {
			_ = b.All()
			_ = b.ByPhase(status.PhaseEarning)
		})
	}
	wg.Wait()
	assert.Equal(t, 100, b.Count())
	assert.Len(t, b.ByPhase(status.PhaseEarning), 100)
}
