// Package clock provides helpers for time-related operations.
package clock

import (
	"context"
	"time"

	bclock "github.com/benbjohnson/clock"
)

// Clock is the time source used by caches and delays.
type Clock = bclock.Clock

// Mock is a manually advanced Clock for tests.
type Mock = bclock.Mock

// New returns the wall clock.
func New() Clock {
	return bclock.New()
}

// NewMock returns a Mock set to the Unix epoch.
func NewMock() *Mock {
	return bclock.NewMock()
}

// SleepWithContext waits for the duration or returns early if the context is canceled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, New(), d)
}

// Sleep waits for d on c or returns early if the context is canceled.
func Sleep(ctx context.Context, c Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := c.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
