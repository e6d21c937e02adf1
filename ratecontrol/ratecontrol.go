// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package ratecontrol gates outbound requests and response-stream
// bandwidth. A Controller hands out a fixed number of request tokens per
// wall-clock interval and accounts transferred bytes against a per
// interval budget; with no options configured every operation is
// admitted immediately. Controllers are safe for concurrent use.
package ratecontrol

import (
	"context"
	"sync"
	"time"
)

// Controller implements the request and bandwidth gates.
type Controller struct {
	opts   options
	ticker *time.Ticker

	mu            sync.Mutex
	intervalStart time.Time // GUARDED_BY(mu)
	intervalBytes int       // GUARDED_BY(mu)
}

// New returns a Controller configured with the supplied options.
func New(opts ...Option) *Controller {
	c := &Controller{}
	c.opts.clock = systemClock{}
	for _, fn := range opts {
		fn(&c.opts)
	}
	if c.opts.interval <= 0 {
		c.opts.interval = time.Minute
	}
	if c.opts.reqsPerInterval > 0 {
		c.ticker = time.NewTicker(c.opts.interval / time.Duration(c.opts.reqsPerInterval))
	}
	if c.opts.bytesPerInterval > 0 {
		c.intervalStart = c.opts.clock.Now()
	}
	return c
}

// Stop releases the Controller's ticker. The Controller must not be used
// afterwards.
func (c *Controller) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
}

// Wait blocks until a request token is available. It is a no-op when no
// request rate is configured.
func (c *Controller) Wait(ctx context.Context) error {
	if c.ticker == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ticker.C:
		return nil
	}
}

// withinBudget rolls the accounting interval forward and reports whether
// the current interval still has byte budget left.
func (c *Controller) withinBudget() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.opts.clock.Now()
	if now.Sub(c.intervalStart) >= c.opts.interval {
		c.intervalStart = now
		c.intervalBytes = 0
		return true
	}
	return c.intervalBytes <= c.opts.bytesPerInterval
}

// WaitBytes blocks until the byte budget for the current interval has
// room. It is a no-op when no bandwidth limit is configured.
func (c *Controller) WaitBytes(ctx context.Context) error {
	if c.opts.bytesPerInterval == 0 {
		return nil
	}
	for {
		if c.withinBudget() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.opts.clock.After(c.opts.interval / 10):
		}
	}
}

// BytesTransferred accounts nBytes against the current interval's budget.
func (c *Controller) BytesTransferred(nBytes int) {
	if c.opts.bytesPerInterval == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.opts.clock.Now()
	if now.Sub(c.intervalStart) >= c.opts.interval {
		c.intervalStart = now
		c.intervalBytes = 0
	}
	c.intervalBytes += nBytes
}

// Backoff returns a new backoff instance as configured for the
// controller, a no-op backoff if none was configured.
func (c *Controller) Backoff() Backoff {
	if c.opts.backoffStart == 0 {
		return noBackoff{}
	}
	return NewExponentialBackoff(c.opts.backoffStart, c.opts.backoffSteps)
}
