package web

import (
	"sync"

	"github.com/ipkit/royaltydemo/pkg/status"
)

// DefaultBufferSize is the default maximum number of events to keep in the buffer.
// a single run emits well under a hundred events.
const DefaultBufferSize = 1000

// Buffer is a thread-safe ring buffer of the current run's events with phase indexing,
// replayed to clients that join late. a reset clears it.
type Buffer struct {
	mu       sync.RWMutex
	events   []Event
	maxSize  int
	writePos int // next position to write (wraps around)
	count    int // total events written (for full detection)

	// phase indexes store positions of events by phase, oldest first
	phaseIndex map[status.Phase][]int
}

// NewBuffer creates a new ring buffer with the specified max size.
// if maxSize is 0, DefaultBufferSize is used.
func NewBuffer(maxSize int) *Buffer {
	if maxSize <= 0 {
		maxSize = DefaultBufferSize
	}
	return &Buffer{
		events:     make([]Event, maxSize),
		maxSize:    maxSize,
		phaseIndex: make(map[status.Phase][]int),
	}
}

// Add appends an event to the buffer, overwriting oldest if full.
// a run or reset event clears the buffer and is kept as its first entry.
func (b *Buffer) Add(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e.Type == EventTypeRun || e.Type == EventTypeReset {
		b.clearLocked()
	}

	if b.count >= b.maxSize {
		b.dropIndexLocked(b.writePos)
	}
	b.events[b.writePos] = e
	b.phaseIndex[e.Phase] = append(b.phaseIndex[e.Phase], b.writePos)
	b.writePos = (b.writePos + 1) % b.maxSize
	b.count++
}

// dropIndexLocked removes the index entry for the position being overwritten, always the
// oldest of its phase. must be called with lock held.
func (b *Buffer) dropIndexLocked(pos int) {
	phase := b.events[pos].Phase
	indices := b.phaseIndex[phase]
	if len(indices) == 0 || indices[0] != pos {
		return
	}
	if len(indices) == 1 {
		delete(b.phaseIndex, phase)
		return
	}
	b.phaseIndex[phase] = indices[1:]
}

// All returns all events in chronological order.
func (b *Buffer) All() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}

	if b.count <= b.maxSize {
		return append([]Event(nil), b.events[:b.count]...)
	}
	// buffer wrapped, read from writePos to end, then start to writePos
	result := make([]Event, 0, b.maxSize)
	result = append(result, b.events[b.writePos:]...)
	return append(result, b.events[:b.writePos]...)
}

// ByPhase returns all events for the given phase in chronological order.
func (b *Buffer) ByPhase(phase status.Phase) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	indices := b.phaseIndex[phase]
	if len(indices) == 0 {
		return nil
	}
	result := make([]Event, len(indices))
	for i, idx := range indices {
		result[i] = b.events[idx]
	}
	return result
}

// Count returns the number of events currently in the buffer.
func (b *Buffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return min(b.count, b.maxSize)
}

// Clear removes all events from the buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearLocked()
}

func (b *Buffer) clearLocked() {
	b.events = make([]Event, b.maxSize)
	b.writePos = 0
	b.count = 0
	b.phaseIndex = make(map[status.Phase][]int)
}
