// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ratecontrol

import "time"

// Clock abstracts wall-clock time for tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

type options struct {
	interval         time.Duration
	reqsPerInterval  int
	bytesPerInterval int
	backoffStart     time.Duration
	backoffSteps     int
	clock            Clock
}

// Option configures a Controller.
type Option func(o *options)

// WithInterval sets the wall-clock interval over which request and byte
// budgets apply. The default is one minute.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
	}
}

// WithRequestsPerInterval caps the number of requests admitted per
// interval. Zero (the default) disables request gating.
func WithRequestsPerInterval(n int) Option {
	return func(o *options) {
		o.reqsPerInterval = n
	}
}

// WithBytesPerInterval caps the bytes transferred per interval. The
// accounting is start/stop rather than smoothed: once the budget is
// exhausted readers wait for the next interval. Zero disables it.
func WithBytesPerInterval(n int) Option {
	return func(o *options) {
		o.bytesPerInterval = n
	}
}

// WithExponentialBackoff enables exponential backoff for retryable
// failures, starting at first and doubling for at most steps attempts.
func WithExponentialBackoff(first time.Duration, steps int) Option {
	return func(o *options) {
		o.backoffStart = first
		o.backoffSteps = steps
	}
}

// WithClock sets the clock implementation, used by tests.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}
