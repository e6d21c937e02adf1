// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ratecontrol

import (
	"context"
	"time"
)

// Backoff is the interface to a retry delay algorithm.
type Backoff interface {
	// Wait blocks for the next delay. It returns true when the algorithm
	// has reached its limit and no more attempts should be made. The
	// returned error is non-nil only for cancellation.
	Wait(ctx context.Context) (bool, error)

	// Retries returns the number of delays taken so far.
	Retries() int
}

// ExponentialBackoff doubles its delay on every Wait up to a fixed number
// of steps.
type ExponentialBackoff struct {
	steps     int
	retries   int
	nextDelay time.Duration
}

// NewExponentialBackoff returns a Backoff starting at initial and
// continuing for at most steps waits.
func NewExponentialBackoff(initial time.Duration, steps int) *ExponentialBackoff {
	return &ExponentialBackoff{nextDelay: initial, steps: steps}
}

// Retries implements Backoff.
func (eb *ExponentialBackoff) Retries() int {
	return eb.retries
}

// Wait implements Backoff.
func (eb *ExponentialBackoff) Wait(ctx context.Context) (bool, error) {
	if eb.retries >= eb.steps {
		return true, nil
	}
	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-time.After(eb.nextDelay):
	}
	eb.nextDelay *= 2
	eb.retries++
	return false, nil
}

type noBackoff struct{}

func (noBackoff) Retries() int {
	return 0
}

func (noBackoff) Wait(context.Context) (bool, error) {
	return true, nil
}
