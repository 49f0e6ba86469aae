package internal

import "time"

// Clock abstracts the wall clock so upload renames are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock uses time.Now.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock struct{ t time.Time }

func NewFixedClock(t time.Time) *FixedClock { return &FixedClock{t: t} }
func (f *FixedClock) Now() time.Time        { return f.t }

// StampLayout is the 14 digit layout used for collision suffixes.
const StampLayout = "20060102150405"

// Stamp formats the clock's current time with StampLayout in UTC.
func Stamp(clock Clock) string {
	if clock == nil {
		clock = RealClock{}
	}
	return clock.Now().UTC().Format(StampLayout)
}
