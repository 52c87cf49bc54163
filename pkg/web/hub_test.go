package web

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipkit/royaltydemo/pkg/status"
)

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	h := NewHub(0)
	assert.Equal(t, 0, h.ClientCount())

	ch1 := h.Subscribe()
	ch2 := h.Subscribe()
	assert.Equal(t, 2, h.ClientCount())

	h.Unsubscribe(ch1)
	assert.Equal(t, 1, h.ClientCount())
	_, open := <-ch1
	assert.False(t, open, "unsubscribed channel is closed")

	assert.NotPanics(t, func() { h.Unsubscribe(ch1) }, "second unsubscribe is a no-op")
	h.Unsubscribe(ch2)
	assert.Equal(t, 0, h.ClientCount())
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub(0)
	ch1 := h.Subscribe()
	ch2 := h.Subscribe()

	dropped := h.Broadcast(NewPhaseEvent("run-1", status.PhaseInitial, status.PhaseProtecting))
	assert.Equal(t, 0, dropped)

	for i, ch := range []chan Event{ch1, ch2} {
		select {
		case e := <-ch:
			assert.Equal(t, status.PhaseProtecting, e.Phase)
		case <-time.After(time.Second):
			t.Fatalf("client %d did not receive event", i)
		}
	}
}

func TestHub_Broadcast_DropsForFullClient(t *testing.T) {
	h := NewHub(0)
	ch := h.Subscribe()

	dropped := 0
	for range DefaultClientBuffer + 44 {
		dropped += h.Broadcast(NewResetEvent("run-1"))
	}
	assert.Equal(t, 44, dropped)
	assert.Equal(t, 44, h.Dropped(ch))
	assert.Len(t, ch, DefaultClientBuffer)

	h.Unsubscribe(ch)
	assert.Zero(t, h.Dropped(ch), "unknown client")
}

func TestHub_SubscribeWithBacklog(t *testing.T) {
	h := NewHub(3)
	backlog := []Event{
		NewRunEvent("run-1", status.LicenseCommercial),
		NewPhaseEvent("run-1", status.PhaseInitial, status.PhaseProtecting),
		NewPhaseEvent("run-1", status.PhaseProtecting, status.PhaseProtected),
		NewPhaseEvent("run-1", status.PhaseProtected, status.PhaseEarning),
	}

	ch := h.Subscribe(backlog...)
	require.Len(t, ch, 3, "backlog is cut to the channel capacity")
	assert.Equal(t, status.PhaseProtecting, (<-ch).Phase, "oldest events are cut first")
	assert.Equal(t, 1, h.Broadcast(NewResetEvent("run-1"))+h.Broadcast(NewResetEvent("run-1")),
		"one slot freed, second broadcast misses")
}

func TestHub_Close(t *testing.T) {
	h := NewHub(0)
	chans := []chan Event{h.Subscribe(), h.Subscribe(), h.Subscribe()}
	h.Close()
	assert.Equal(t, 0, h.ClientCount())
	for _, ch := range chans {
		_, open := <-ch
		assert.False(t, open)
	}
}

func TestHub_Concurrency(t *testing.T) {
	h := NewHub(0)
	var wg sync.WaitGroup

	channels := make([]chan Event, 0, 20)
	var chMu sync.Mutex
	for range 20 {
		wg.Go(func() {
			ch := h.Subscribe()
			chMu.Lock()
			channels = append(channels, ch)
			chMu.Unlock()
		})
	}
	wg.Wait()
	require.Equal(t, 20, h.ClientCount())

	for range 10 {
		wg.Go(func() {
			for range 10 {
				h.Broadcast(NewResetEvent("run-1"))
			}
		})
	}
	for i := range 10 {
		wg.Go(func() {
			chMu.Lock()
			ch := channels[i]
			chMu.Unlock()
			h.Unsubscribe(ch)
		})
	}
	wg.Wait()
	assert.Equal(t, 10, h.ClientCount())
}

func TestHub_BroadcastToNoClients(t *testing.T) {
	h := NewHub(0)
	assert.NotPanics(t, func() {
		assert.Equal(t, 0, h.Broadcast(NewResetEvent("")))
	})
}
