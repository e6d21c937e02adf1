// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package download implements the consumer side of the pipeline: it
// drains the post queue, downloads binary media with resume support and
// appends text-like posts to per-kind manifests. Concurrency is bounded
// by two semaphores, a general binary cap and a stricter video cap,
// both divided fairly across the blogs being processed at the same
// time. Failures are isolated per item; only disk exhaustion stops the
// run.
package download

import (
	"context"
	"sync"
	"sync/atomic"

	"cloudeng.io/logging/ctxlog"
	"cloudeng.io/sync/errgroup"
	"github.com/mirrorkeep/blogdl"
	"github.com/mirrorkeep/blogdl/dedup"
	"github.com/mirrorkeep/blogdl/fetch"
	"github.com/mirrorkeep/blogdl/queue"
)

// Downloader consumes one blog's post queue.
type Downloader struct {
	cfg    *blogdl.BlogConfig
	client *fetch.Client
	index  *dedup.Index
	stats  *blogdl.Collector
	opts   options

	binarySem chan struct{}
	videoSem  chan struct{}
	failed    atomic.Bool
	manifests *manifestSet

	// inflight guards against the same identifier appearing more than
	// once in the queue: the first item claims it, later ones skip.
	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// New creates a Downloader for cfg writing into cfg.DownloadLocation.
// The index provides dedup decisions and receives completed
// identifiers.
func New(cfg *blogdl.BlogConfig, client *fetch.Client, index *dedup.Index, stats *blogdl.Collector, opts ...Option) *Downloader {
	d := &Downloader{
		cfg:       cfg,
		client:    client,
		index:     index,
		stats:     stats,
		manifests: newManifestSet(cfg.DownloadLocation),
		inflight:  map[string]struct{}{},
	}
	d.opts = defaultOptions()
	for _, fn := range opts {
		fn(&d.opts)
	}
	return d
}

// Run drains q until it is completed or ctx is cancelled. It returns
// true iff every consumed item completed without an unrecoverable
// error; successes persisted before a failure are retained either way.
func (d *Downloader) Run(ctx context.Context, q *queue.Q[blogdl.Post]) bool {
	logger := ctxlog.Logger(ctx).With("pkg", "download", "blog", d.cfg.Name)

	// Fair-share division of the connection caps across the blogs
	// currently being processed.
	active := 1
	if d.opts.activeBlogs != nil {
		if n := d.opts.activeBlogs(); n > 1 {
			active = n
		}
	}
	d.binarySem = make(chan struct{}, fairShare(d.opts.binaryConns, active))
	d.videoSem = make(chan struct{}, fairShare(d.opts.videoConns, active))

	var g errgroup.T
	for post := range q.Drain(ctx) {
		if err := d.opts.gate.Wait(ctx); err != nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if !d.acquire(ctx, post.Kind) {
			break
		}
		post := post
		g.Go(func() error {
			defer d.release(post.Kind)
			d.item(ctx, post)
			return nil
		})
	}
	// Item failures are recorded on d.failed; the join only waits for
	// in-flight downloads.
	_ = g.Wait()

	d.stats.ClearLast()
	if err := d.index.Flush(); err != nil {
		logger.Warn("index flush failed", "err", err)
		d.failed.Store(true)
	}
	logger.Info("download finished", "failed", d.failed.Load())
	return !d.failed.Load()
}

// fairShare divides cap n across active blogs, never below one.
func fairShare(n, active int) int {
	n /= active
	if n < 1 {
		return 1
	}
	return n
}

// acquire takes the semaphores for the kind: video items take both
// the video and the general slot, everything else the general slot
// only. It returns false when ctx is cancelled while waiting.
func (d *Downloader) acquire(ctx context.Context, k blogdl.Kind) bool {
	if k == blogdl.Video {
		select {
		case d.videoSem <- struct{}{}:
		case <-ctx.Done():
			return false
		}
	}
	select {
	case d.binarySem <- struct{}{}:
		return true
	case <-ctx.Done():
		if k == blogdl.Video {
			<-d.videoSem
		}
		return false
	}
}

func (d *Downloader) release(k blogdl.Kind) {
	<-d.binarySem
	if k == blogdl.Video {
		<-d.videoSem
	}
}

// claim reserves the identifier for this item. It returns false when
// another in-flight item already holds it.
func (d *Downloader) claim(key string) bool {
	d.inflightMu.Lock()
	defer d.inflightMu.Unlock()
	if _, ok := d.inflight[key]; ok {
		return false
	}
	d.inflight[key] = struct{}{}
	return true
}

func (d *Downloader) unclaim(key string) {
	d.inflightMu.Lock()
	defer d.inflightMu.Unlock()
	delete(d.inflight, key)
}

// item dispatches one queue entry. All per-item errors are contained
// here; disk exhaustion additionally triggers the global stop signal.
func (d *Downloader) item(ctx context.Context, post blogdl.Post) {
	key := post.DedupKey()
	if !d.claim(key) {
		d.opts.reporter.Report("%v: skipped %v", d.cfg.Name, key)
		return
	}
	defer d.unclaim(key)
	var err error
	if post.Kind.Binary() {
		err = d.binary(ctx, post)
	} else {
		err = d.text(post)
	}
	switch {
	case err == nil:
	case fetch.IsCancelled(err):
	case isDiskFull(err):
		d.failed.Store(true)
		d.opts.reporter.Report("%v: disk full, stopping all downloads", d.cfg.Name)
		ctxlog.Logger(ctx).Error("disk full", "blog", d.cfg.Name, "err", err)
		if d.opts.stop != nil {
			d.opts.stop()
		}
	default:
		d.failed.Store(true)
		ctxlog.Logger(ctx).Warn("item failed", "blog", d.cfg.Name,
			"kind", post.Kind.String(), "id", post.ID, "err", err)
	}
}
