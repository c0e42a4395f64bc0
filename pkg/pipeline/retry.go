/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"time"

	"github.com/wolfi-cuda/builder/pkg/defaults"
	"github.com/wolfi-cuda/builder/pkg/oci"
)

// Backoff describes a bounded retry schedule: doubling delays capped at
// Max, for at most Attempts total tries of the operation.
type Backoff struct {
	Attempts   int
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
}

// DefaultBackoff returns the standard push retry schedule.
func DefaultBackoff() Backoff {
	return Backoff{
		Attempts:   defaults.PushRetries,
		Initial:    defaults.PushBackoffInitial,
		Multiplier: 2,
		Max:        defaults.PushBackoffMax,
	}
}

// Delay returns the pause before the given retry (1-based, after the
// first failed attempt).
func (b Backoff) Delay(retry int) time.Duration {
	d := float64(b.Initial)
	for i := 1; i < retry; i++ {
		d *= b.Multiplier
	}
	if ceil := float64(b.Max); d > ceil {
		d = ceil
	}
	return time.Duration(d)
}

// sleeper pauses for d or until ctx is done. Injectable so tests do not
// wait out real backoff delays.
type sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryPush runs op up to b.Attempts times, sleeping b.Delay between
// attempts. ctx gates the waits between attempts, not the attempts
// themselves; op receives its own context from the caller. Auth errors
// are never retried. Returns the number of attempts made.
func retryPush(ctx context.Context, b Backoff, sleep sleeper, op func() error) (int, error) {
	var err error
	for attempt := 1; ; attempt++ {
		err = op()
		if err == nil {
			return attempt, nil
		}
		if oci.IsAuthError(err) {
			return attempt, err
		}
		if attempt >= b.Attempts {
			return attempt, err
		}
		pushRetries.Inc()
		if serr := sleep(ctx, b.Delay(attempt)); serr != nil {
			return attempt, err
		}
	}
}
