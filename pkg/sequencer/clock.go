package sequencer

import "time"

// Timer is a pending deferred action.
type Timer interface {
	Stop() bool
}

// Clock creates deferred actions. the real clock uses time.AfterFunc,
// tests use clocktest.Clock to advance time by hand.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock is the wall-clock implementation of Clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// AfterFunc runs f in its own goroutine after d.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
