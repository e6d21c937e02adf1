// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package crawl

import (
	"context"

	"github.com/mirrorkeep/blogdl"
)

type options struct {
	gate       *blogdl.Gate
	reporter   blogdl.Reporter
	prober     func(ctx context.Context) error
	keyFetcher func(ctx context.Context) error
}

// Option represents an option to New.
type Option func(*options)

// WithGate sets the pause gate shared with the downloader. The default
// gate is always open.
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

// WithProber sets the online-check probe, typically a request to the
// blog root. Without a probe the blog is assumed reachable.
func WithProber(p func(ctx context.Context) error) Option {
	return func(o *options) {
		o.prober = p
	}
}

// WithKeyFetcher sets an optional pre-crawl step that obtains a form or
// CSRF token required by the pager. A failure marks the run incomplete
// without crawling.
func WithKeyFetcher(f func(ctx context.Context) error) Option {
	return func(o *options) {
		o.keyFetcher = f
	}
}
