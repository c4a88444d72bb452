// Package clock abstracts wall time so that timers can be driven
// deterministically in tests.
//
// Production code takes a Clock and uses Real(); tests use Fake() and
// move time forward explicitly with Advance.
package clock

import "time"

// Clock is the subset of the time package the console depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f in its own goroutine (real clock) or synchronously
	// during Advance (fake clock) once d has elapsed.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker returns a ticker delivering ticks every d. d must be positive.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a cancellable one-shot callback created by AfterFunc.
type Timer struct {
	stop func() bool
}

// Stop prevents the timer from firing. It returns false if the timer
// already fired or was stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stop == nil {
		return false
	}
	return t.stop()
}

// Ticker delivers periodic ticks on C.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

// Stop turns the ticker off. No more ticks are sent after Stop returns.
func (t *Ticker) Stop() {
	if t != nil && t.stop != nil {
		t.stop()
	}
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stop: t.Stop}
}

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}
