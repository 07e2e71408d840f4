package ports

import "time"

// SystemClock is the default Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock is a Clock that always returns the same instant; useful in
// tests that assert on exact timestamps.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
