// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package download

import (
	"time"

	"github.com/mirrorkeep/blogdl"
)

type options struct {
	gate        *blogdl.Gate
	reporter    blogdl.Reporter
	stop        func()
	activeBlogs func() int
	binaryConns int
	videoConns  int
	retries     int
	backoffWait time.Duration
	formatter   Formatter
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
		backoffWait: 500 * time.Millisecond,
		formatter:   FormatPost,
	}
}

// WithGate sets the pause gate shared with the crawler.
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

// WithStop sets the global stop signal invoked on disk exhaustion.
func WithStop(stop func()) Option {
	return func(o *options) {
		o.stop = stop
	}
}

// WithActiveBlogs supplies the number of blogs being processed
// concurrently; the connection caps are divided by it.
func WithActiveBlogs(f func() int) Option {
	return func(o *options) {
		o.activeBlogs = f
	}
}

// WithConnections sets the overall binary connection cap and the
// stricter video connection cap, before fair-share division.
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

// WithRetries bounds the attempts for transient failures on the binary
// download path.
func WithRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.retries = n
		}
	}
}

// WithRetryBackoff sets the first retry delay; subsequent delays
// double.
func WithRetryBackoff(wait time.Duration) Option {
	return func(o *options) {
		if wait > 0 {
			o.backoffWait = wait
		}
	}
}

// WithFormatter overrides the manifest line formatter for text-like
// kinds.
func WithFormatter(f Formatter) Option {
	return func(o *options) {
		o.formatter = f
	}
}
