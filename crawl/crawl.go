// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package crawl implements the per-blog page crawler. A single generic
// pipeline is parameterized by a Pager strategy that encapsulates the
// blog-type specific pagination (HTML offsets, JSON API offsets, opaque
// cursors or paged feeds). Pages are fetched by a pool of workers using
// interleaved partitioning, extracted posts are pushed onto the post
// queue and the queue is completed exactly once when all workers finish.
package crawl

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"cloudeng.io/logging/ctxlog"
	"cloudeng.io/sync/errgroup"
	"github.com/mirrorkeep/blogdl"
	"github.com/mirrorkeep/blogdl/fetch"
	"github.com/mirrorkeep/blogdl/queue"
)

// Summary describes the outcome of a crawl.
type Summary struct {
	// Online is the result of the online check.
	Online bool
	// NotAuthenticated is set when the blog is reachable but behind an
	// authentication wall; no pages were crawled.
	NotAuthenticated bool
	// HighestID is the largest numeric post ID seen across all pages; it
	// becomes the new watermark on complete, uncancelled runs.
	HighestID uint64
	// Pages is the number of non-empty pages fetched; the out-of-range
	// probe each worker ends on is not counted.
	Pages int
	// Incomplete is set when any worker was rate limited or timed out;
	// it suppresses watermark advancement.
	Incomplete bool
	// Cancelled records whether the run's context was cancelled.
	Cancelled bool
}

// AdvanceWatermark reports whether the crawl ran to a state that permits
// persisting HighestID as the blog's new watermark.
func (s Summary) AdvanceWatermark() bool {
	return s.Online && !s.NotAuthenticated && !s.Incomplete && !s.Cancelled
}

// Crawler drives pagination for one blog.
type Crawler struct {
	cfg   *blogdl.BlogConfig
	pager Pager
	q     *queue.Q[blogdl.Post]
	stats *blogdl.Collector
	opts  options

	highest    atomic.Uint64
	pages      atomic.Int64
	incomplete atomic.Bool

	mu      sync.Mutex
	binURLs map[blogdl.Kind][]string

	completeOnce sync.Once
}

// New creates a Crawler feeding q. The collector receives per-kind
// crawled counts as posts are enqueued and the duplicate counts once
// pagination finishes.
func New(cfg *blogdl.BlogConfig, pager Pager, q *queue.Q[blogdl.Post], stats *blogdl.Collector, opts ...Option) *Crawler {
	c := &Crawler{
		cfg:     cfg,
		pager:   pager,
		q:       q,
		stats:   stats,
		binURLs: map[blogdl.Kind][]string{},
	}
	c.opts.gate = blogdl.NewGate()
	c.opts.reporter = blogdl.Discard()
	for _, fn := range opts {
		fn(&c.opts)
	}
	return c
}

// Run executes the crawl: online check, optional key fetch, pagination
// and queue completion. The queue is always completed before Run
// returns, including on the offline and not-authenticated paths.
// Cancellation is reported via the Summary rather than as an error.
func (c *Crawler) Run(ctx context.Context) (Summary, error) {
	logger := ctxlog.Logger(ctx).With("pkg", "crawl", "blog", c.cfg.Name)
	defer c.complete()

	online, authed := c.checkOnline(ctx)
	c.stats.SetOnline(online)
	if !online {
		c.opts.reporter.Report("%v: offline", c.cfg.Name)
		return Summary{Cancelled: ctx.Err() != nil}, nil
	}
	if !authed {
		c.opts.reporter.Report("%v: not logged in, crawl skipped", c.cfg.Name)
		return Summary{Online: true, NotAuthenticated: true, Cancelled: ctx.Err() != nil}, nil
	}

	if c.opts.keyFetcher != nil {
		if err := c.opts.keyFetcher(ctx); err != nil {
			logger.Warn("key fetch failed", "err", err)
			c.opts.reporter.Report("%v: could not obtain access token", c.cfg.Name)
			c.incomplete.Store(true)
			return c.summary(ctx), nil
		}
	}

	workers := c.cfg.ConcurrentScans
	if workers < 1 || !c.pager.Concurrent() {
		workers = 1
	}
	var g errgroup.T
	for k := 0; k < workers; k++ {
		k := k
		g.Go(func() error {
			c.paginate(ctx, k, workers)
			return nil
		})
	}
	// Workers contain their own errors; the join only synchronizes.
	_ = g.Wait()

	c.complete()
	c.countDuplicates()
	logger.Info("crawl finished", "pages", c.pages.Load(),
		"highest", c.highest.Load(), "incomplete", c.incomplete.Load())
	return c.summary(ctx), nil
}

func (c *Crawler) summary(ctx context.Context) Summary {
	return Summary{
		Online:     true,
		HighestID:  c.highest.Load(),
		Pages:      int(c.pages.Load()),
		Incomplete: c.incomplete.Load(),
		Cancelled:  ctx.Err() != nil,
	}
}

// checkOnline probes the blog root. Unreachable sites and timeouts mark
// the blog offline; an authentication wall leaves it online but not
// crawlable this session.
func (c *Crawler) checkOnline(ctx context.Context) (online, authed bool) {
	if c.opts.prober == nil {
		return true, true
	}
	err := c.opts.prober(ctx)
	switch {
	case err == nil:
		return true, true
	case fetch.IsNotAuthenticated(err):
		return true, false
	case fetch.IsNotFound(err):
		// The blog was removed or renamed; 404/410 is a definitive
		// offline answer, not a transient failure.
		return false, false
	default:
		// Timeouts, connection errors and cancellation leave the blog
		// offline for this run.
		return false, false
	}
}

// paginate is one page-fetch worker. Worker k visits pages k, k+n,
// k+2n, ... in strictly increasing order.
func (c *Crawler) paginate(ctx context.Context, k, n int) {
	logger := ctxlog.Logger(ctx).With("pkg", "crawl", "blog", c.cfg.Name, "worker", k)
	maxPage, bounded := c.cfg.MaxPage()
	cursor := Cursor{Index: k}
	for {
		if err := c.opts.gate.Wait(ctx); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if bounded && cursor.Index > maxPage {
			return
		}
		if !c.cfg.PageAllowed(cursor.Index) {
			cursor.Index += n
			continue
		}
		page, err := c.pager.Fetch(ctx, cursor)
		if err != nil {
			if !c.pageError(logger, cursor, err) {
				return
			}
			cursor.Index += n
			continue
		}
		if page.Empty {
			return
		}
		// Exhaustion is the pager's call: a page whose posts were all
		// rejected by the admission filter is not the end of the blog.
		c.pages.Add(1)
		c.recordBounds(page)
		crossed := c.watermarkCrossed(page)
		for _, post := range page.Posts {
			if crossed && post.NumericID() != 0 && post.NumericID() <= c.cfg.LastSeenID {
				continue
			}
			if err := c.q.Add(ctx, post); err != nil {
				return
			}
			c.stats.CountCrawled(post.Kind)
			if post.Kind.Binary() {
				c.mu.Lock()
				c.binURLs[post.Kind] = append(c.binURLs[post.Kind], post.URL)
				c.mu.Unlock()
			}
		}
		if crossed {
			return
		}
		cursor.Index += n
		cursor.Token = page.NextToken
		if !c.pager.Concurrent() && cursor.Token == "" {
			return
		}
	}
}

// pageError contains a page fetch failure at the page boundary. It
// returns true when the worker should continue with the next page.
func (c *Crawler) pageError(logger *slog.Logger, cursor Cursor, err error) bool {
	switch {
	case fetch.IsCancelled(err):
		return false
	case fetch.IsRateLimited(err):
		c.incomplete.Store(true)
		c.opts.reporter.Report("%v: rate limited, crawl incomplete", c.cfg.Name)
		return false
	case fetch.IsNotAuthenticated(err):
		c.opts.reporter.Report("%v: not logged in", c.cfg.Name)
		return false
	case fetch.IsTimeout(err):
		c.incomplete.Store(true)
		c.opts.reporter.Report("%v: timeout on page %v", c.cfg.Name, cursor.Index)
		logger.Warn("page timeout", "page", cursor.Index)
		return true
	default:
		// Parse errors and other per-page failures are logged and the
		// worker moves on.
		logger.Warn("page failed", "page", cursor.Index, "err", err)
		return true
	}
}

// watermarkCrossed reports whether the page reaches back to posts seen
// by a previous complete crawl.
func (c *Crawler) watermarkCrossed(page Page) bool {
	if c.cfg.ForceRescan || c.cfg.LastSeenID == 0 {
		return false
	}
	return page.LowestID != 0 && page.LowestID <= c.cfg.LastSeenID
}

func (c *Crawler) recordBounds(page Page) {
	for {
		cur := c.highest.Load()
		if page.HighestID <= cur || c.highest.CompareAndSwap(cur, page.HighestID) {
			return
		}
	}
}

// complete completes the post queue exactly once.
func (c *Crawler) complete() {
	c.completeOnce.Do(c.q.CompleteAdding)
}

func (c *Crawler) countDuplicates() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for kind, urls := range c.binURLs {
		if n := DetermineDuplicates(urls); n > 0 {
			c.stats.AddDuplicates(kind, n)
		}
	}
}
