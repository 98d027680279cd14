package clock

import (
	"sync"
	"time"
)

// Clock is the only source of wall-clock time in the application.
// Now returns the current instant in UTC; Today returns the current
// civil date as midnight UTC.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

type systemClock struct{}

// System returns a Clock backed by the real wall clock.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func (systemClock) Today() time.Time {
	return Midnight(time.Now().UTC())
}

// Midnight truncates an instant to its civil date (midnight UTC).
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fake is a controllable Clock for tests.
type Fake struct {
	mu      sync.Mutex
	current time.Time
}

// NewFake returns a fake clock initialised to the supplied instant.
func NewFake(start time.Time) *Fake {
	return &Fake{current: start.UTC()}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Fake) Today() time.Time {
	return Midnight(f.Now())
}

// Set moves the clock to the provided instant.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.current = t.UTC()
	f.mu.Unlock()
}

// Advance moves the clock forward by d and returns the updated instant.
func (f *Fake) Advance(d time.Duration) time.Time {
	f.mu.Lock()
	f.current = f.current.Add(d)
	updated := f.current
	f.mu.Unlock()
	return updated
}
