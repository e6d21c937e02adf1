// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package engine composes the pipeline for a run: per blog it wires a
// post queue between a crawler and a downloader, joins both, finalizes
// the statistics and persists the aggregate and dedup index exactly
// once. Multiple blogs run concurrently and share the connection caps
// fairly.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"cloudeng.io/errors"
	"cloudeng.io/logging/ctxlog"
	"cloudeng.io/sync/errgroup"
	"github.com/mirrorkeep/blogdl"
	"github.com/mirrorkeep/blogdl/crawl"
	"github.com/mirrorkeep/blogdl/dedup"
	"github.com/mirrorkeep/blogdl/download"
	"github.com/mirrorkeep/blogdl/fetch"
	"github.com/mirrorkeep/blogdl/queue"
	"github.com/mirrorkeep/blogdl/store"
)

// ErrDownloadFailed is returned when a run finished but at least one
// item failed; successes up to that point are persisted regardless.
var ErrDownloadFailed = errors.New("download completed with failures")

// queueCapacity bounds how far the crawler can run ahead of the
// downloader.
const queueCapacity = 1000

// Engine runs blogs against a shared HTTP client and aggregate store.
type Engine struct {
	db     *store.DB
	client *fetch.Client
	opts   options
	active atomic.Int32
}

// BlogRun pairs a blog configuration with the pagination strategy for
// its blog type.
type BlogRun struct {
	Config *blogdl.BlogConfig
	Pager  crawl.Pager
}

// New creates an Engine. The caller retains ownership of db and client.
func New(db *store.DB, client *fetch.Client, opts ...Option) *Engine {
	e := &Engine{db: db, client: client}
	e.opts = defaultOptions()
	for _, fn := range opts {
		fn(&e.opts)
	}
	return e
}

// Run processes the blogs concurrently. Disk exhaustion in any blog
// stops them all; other failures are contained per blog.
func (e *Engine) Run(ctx context.Context, runs []BlogRun) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var g errgroup.T
	for _, r := range runs {
		r := r
		g.Go(func() error {
			_, err := e.runBlog(ctx, cancel, r.Config, r.Pager)
			if err != nil {
				return fmt.Errorf("blog %v: %w", r.Config.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// RunBlog processes a single blog and returns its persisted aggregate.
func (e *Engine) RunBlog(ctx context.Context, cfg *blogdl.BlogConfig, pager crawl.Pager) (blogdl.Aggregate, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return e.runBlog(ctx, cancel, cfg, pager)
}

func (e *Engine) runBlog(ctx context.Context, stop func(), cfg *blogdl.BlogConfig, pager crawl.Pager) (blogdl.Aggregate, error) {
	e.active.Add(1)
	defer e.active.Add(-1)
	logger := ctxlog.Logger(ctx).With("pkg", "engine", "blog", cfg.Name)

	prev, _, err := e.db.LoadAggregate(ctx, cfg.Name)
	if err != nil {
		return blogdl.Aggregate{}, err
	}
	if !cfg.ForceRescan {
		cfg.LastSeenID = prev.LastSeenID
	}
	if err := os.MkdirAll(cfg.DownloadLocation, 0700); err != nil {
		return blogdl.Aggregate{}, err
	}
	index, err := dedup.Load(filepath.Join(cfg.DownloadLocation, cfg.Name+"_index.txt"))
	if err != nil {
		return blogdl.Aggregate{}, err
	}

	stats := blogdl.NewCollector()
	q := queue.New[blogdl.Post](queueCapacity)

	crawler := crawl.New(cfg, pager, q, stats,
		crawl.WithGate(e.opts.gate),
		crawl.WithReporter(e.opts.reporter),
		crawl.WithProber(e.prober(cfg)))
	downloader := download.New(cfg, e.client, index, stats,
		download.WithGate(e.opts.gate),
		download.WithReporter(e.opts.reporter),
		download.WithStop(stop),
		download.WithActiveBlogs(func() int { return int(e.active.Load()) }),
		download.WithConnections(e.opts.binaryConns, e.opts.videoConns),
		download.WithRetries(e.opts.retries))

	var summary crawl.Summary
	var downloadOK bool
	var g errgroup.T
	g.Go(func() error {
		var err error
		summary, err = crawler.Run(ctx)
		return err
	})
	g.Go(func() error {
		downloadOK = downloader.Run(ctx, q)
		return nil
	})
	runErr := g.Wait()

	agg := e.finalize(ctx, cfg, prev, stats, summary)
	errs := errors.M{}
	errs.Append(runErr)
	// The aggregate and index are persisted exactly once, after both
	// sides have finished; a cancelled save must still go through.
	errs.Append(e.db.SaveAggregate(context.WithoutCancel(ctx), agg))
	errs.Append(index.Close())
	if !downloadOK {
		errs.Append(fmt.Errorf("%v: %w", cfg.Name, ErrDownloadFailed))
	}
	logger.Info("run finished",
		"online", agg.Stats.Online,
		"total", agg.Stats.Total,
		"watermark", agg.LastSeenID,
		"incomplete", summary.Incomplete,
		"cancelled", summary.Cancelled)
	return agg, errs.Err()
}

// finalize derives the post-run aggregate. The watermark advances only
// on complete, uncancelled crawls; the last-complete-crawl time is set
// only when the run was not cancelled. A cancelled run keeps both at
// their pre-run values.
func (e *Engine) finalize(ctx context.Context, cfg *blogdl.BlogConfig, prev blogdl.Aggregate, stats *blogdl.Collector, summary crawl.Summary) blogdl.Aggregate {
	agg := blogdl.Aggregate{
		Name:       cfg.Name,
		LastSeenID: prev.LastSeenID,
		Stats:      stats.Snapshot(),
	}
	agg.Stats.LastCompleteCrawl = prev.Stats.LastCompleteCrawl
	cancelled := summary.Cancelled || ctx.Err() != nil
	if !cancelled {
		agg.Stats.LastCompleteCrawl = e.opts.now().UTC().Truncate(time.Second)
	}
	if summary.AdvanceWatermark() && summary.HighestID > agg.LastSeenID {
		agg.LastSeenID = summary.HighestID
	}
	return agg
}

// prober issues one request to the blog root; its classified error
// decides online, offline or not-authenticated.
func (e *Engine) prober(cfg *blogdl.BlogConfig) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := e.client.Text(ctx, cfg.URL)
		return err
	}
}

// Pause blocks all workers at their next gate check.
func (e *Engine) Pause() {
	e.opts.gate.Pause()
}

// Resume releases paused workers.
func (e *Engine) Resume() {
	e.opts.gate.Resume()
}
