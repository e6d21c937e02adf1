// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package blogdl

import "time"

// BlogConfig is the per-blog download policy. It is read-only from the
// crawler's and downloader's perspective; the post-run state they produce
// (watermark, online flag, statistics) is carried on the Aggregate.
type BlogConfig struct {
	// Name identifies the blog; it is used for the dedup index file,
	// the aggregate row and user visible notices.
	Name string
	// URL is the blog root.
	URL string
	// DownloadLocation is the directory that receives media files and
	// per-kind manifests.
	DownloadLocation string
	// APIKeys are rotated through when the API pager is rate limited.
	APIKeys []string

	// Kinds are the post kinds to collect.
	Kinds KindSet
	// TagFilter admits only posts whose tags intersect it
	// (case-insensitive). Empty admits everything.
	TagFilter []string
	// From/To bound post timestamps inclusively. Zero values impose no
	// constraint.
	From, To time.Time
	// IncludeReblogs admits reblogged posts.
	IncludeReblogs bool
	// Pages restricts the crawl to an explicit page list. Nil scans all
	// pages.
	Pages []int
	// ForceRescan ignores both the watermark and the dedup index.
	ForceRescan bool
	// LastSeenID is the watermark from the previous complete crawl.
	LastSeenID uint64

	// PreferredSize is the media size token substituted into photo URLs.
	PreferredSize string
	SkipGIF       bool
	// URLListOnly appends media URLs to a manifest instead of fetching.
	URLListOnly bool
	// CheckDirectory also treats same-named files already on disk as
	// downloaded.
	CheckDirectory bool

	// ConcurrentScans is the fan-out of simultaneous page-fetch workers.
	ConcurrentScans int
}

// PageAllowed reports whether the page index is within the configured
// explicit page list, or any page when no list is set.
func (c *BlogConfig) PageAllowed(page int) bool {
	if len(c.Pages) == 0 {
		return true
	}
	for _, p := range c.Pages {
		if p == page {
			return true
		}
	}
	return false
}

// MaxPage returns the largest explicitly configured page and true, or
// false when the crawl is unbounded.
func (c *BlogConfig) MaxPage() (int, bool) {
	if len(c.Pages) == 0 {
		return 0, false
	}
	maxp := c.Pages[0]
	for _, p := range c.Pages[1:] {
		if p > maxp {
			maxp = p
		}
	}
	return maxp, true
}
