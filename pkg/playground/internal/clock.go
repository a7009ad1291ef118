// Package internal provides internal utilities for the playground package.
package internal

import (
	"context"
	"time"
)

// Clock is an interface for obtaining time and waiting between polls.
// This abstraction allows for deterministic testing of wait loops.
type Clock interface {
	// Now returns the current time. Implementations must return
	// monotonically increasing time values.
	Now() time.Time

	// Sleep blocks for d or until ctx is done, whichever comes first.
	// It returns ctx.Err() if the context ended the wait.
	Sleep(ctx context.Context, d time.Duration) error
}

// MonotonicClock is a Clock implementation that uses the system's monotonic clock.
type MonotonicClock struct{}

// Now returns the current system time with monotonic clock reading.
func (MonotonicClock) Now() time.Time {
	return time.Now()
}

// Sleep waits on a real timer.
func (MonotonicClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// MockClock is a Clock implementation for testing that allows manual control
// of time progression. Sleep advances the clock instead of blocking.
// It is not safe for concurrent use.
type MockClock struct {
	current time.Time
	sleeps  int
}

// NewMockClock creates a new MockClock initialized to the given time.
// If t is zero, it initializes to a reasonable default start time.
func NewMockClock(t time.Time) *MockClock {
	if t.IsZero() {
		t = time.Unix(1000000000, 0) // 2001-09-09
	}
	return &MockClock{current: t}
}

// Now returns the mock clock's current time.
func (m *MockClock) Now() time.Time {
	return m.current
}

// Sleep advances the clock by d without blocking.
func (m *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.sleeps++
	m.Advance(d)
	return nil
}

// Sleeps reports how many times Sleep was called.
func (m *MockClock) Sleeps() int {
	return m.sleeps
}

// Advance moves the clock forward by the given duration.
// Panics if d is negative to maintain monotonicity.
func (m *MockClock) Advance(d time.Duration) {
	if d < 0 {
		panic("MockClock.Advance: duration must be non-negative")
	}
	m.current = m.current.Add(d)
}
