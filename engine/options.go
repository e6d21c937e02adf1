// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package engine

import (
	"time"

	"github.com/mirrorkeep/blogdl"
)

type options struct {
	gate        *blogdl.Gate
	reporter    blogdl.Reporter
	binaryConns int
	videoConns  int
	retries     int
	now         func() time.Time
}

// Option represents an option to New.
type Option func(*options)

func defaultOptions() options {
	return options{
		gate:        blogdl.NewGate(),
		reporter:    blogdl.Discard(),
		binaryConns: 16,
		videoConns:  4,
		retries:     3,
		now:         time.Now,
	}
}

// WithGate sets the pause gate shared by all blogs of this engine.
func WithGate(g *blogdl.Gate) Option {
	return func(o *options) {
		o.gate = g
	}
}

// WithReporter sets the progress notification sink.
func WithReporter(r blogdl.Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithConnections sets the system-wide binary and video connection
// caps, divided across concurrently active blogs.
func WithConnections(binary, video int) Option {
	return func(o *options) {
		if binary > 0 {
			o.binaryConns = binary
		}
		if video > 0 {
			o.videoConns = video
		}
	}
}

// WithRetries bounds the download retry attempts.
func WithRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.retries = n
		}
	}
}

// WithClock overrides the time source used for the last-complete-crawl
// stamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
