// Package ident provides the unique-token and wall-clock sources used by the core.
package ident

import (
	"time"

	"github.com/google/uuid"
)

// Generator produces globally unique opaque tokens.
type Generator interface {
	NewID() string
}

// Clock reports the current wall-clock time.
type Clock interface {
	Now() time.Time
}

// UUIDGenerator issues random v4 UUID strings.
type UUIDGenerator struct{}

// NewID returns a fresh UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SystemClock returns UTC time truncated to microseconds, the precision timestamptz keeps.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}
