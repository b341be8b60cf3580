// Package clock provides an injectable source of "now" so the longevity,
// rate-limit, and replacement-window policies in internal/eloengine can be
// exercised deterministically from tests instead of racing wall-clock time.
package clock

import "time"

// Clock returns the current time. Production code uses Real; tests use Fixed
// or Frozen to control the passage of time precisely.
type Clock interface {
	Now() time.Time
}

// Real is the production clock, backed by time.Now.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant. Useful when a test needs a single
// stable "now" across several calls.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At }

// Frozen is a mutable clock a test can advance explicitly, for scenarios
// that need to simulate the passage of time between two operations (e.g.
// merge now, advance 31 days, run the longevity sweep).
type Frozen struct {
	at time.Time
}

func NewFrozen(at time.Time) *Frozen {
	return &Frozen{at: at}
}

func (f *Frozen) Now() time.Time {
	return f.at
}

func (f *Frozen) Advance(d time.Duration) {
	f.at = f.at.Add(d)
}

func (f *Frozen) Set(at time.Time) {
	f.at = at
}
