// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extract

import (
	"strings"
	"time"

	"github.com/mirrorkeep/blogdl"
)

// Filter is the post admission policy: tag membership, reblog inclusion
// and an inclusive timestamp range.
type Filter struct {
	// Tags admits posts whose tag set intersects it, case-insensitively.
	// Empty admits all posts.
	Tags []string
	// IncludeReblogs admits posts that carry a reblog source.
	IncludeReblogs bool
	// From/To bound the post timestamp inclusively; zero values are
	// unbounded. Posts without a timestamp are admitted.
	From, To time.Time
}

// FilterFor derives the Filter from a blog configuration.
func FilterFor(cfg *blogdl.BlogConfig) Filter {
	return Filter{
		Tags:           cfg.TagFilter,
		IncludeReblogs: cfg.IncludeReblogs,
		From:           cfg.From,
		To:             cfg.To,
	}
}

// Admit reports whether the post passes the filter.
func (f Filter) Admit(p blogdl.Post) bool {
	if !f.IncludeReblogs && p.RebloggedFrom != "" {
		return false
	}
	if !f.admitTags(p.Tags) {
		return false
	}
	return f.admitTime(p.Timestamp)
}

func (f Filter) admitTags(tags []string) bool {
	if len(f.Tags) == 0 {
		return true
	}
	for _, want := range f.Tags {
		for _, have := range tags {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

func (f Filter) admitTime(ts time.Time) bool {
	if ts.IsZero() {
		return true
	}
	if !f.From.IsZero() && ts.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ts.After(f.To) {
		return false
	}
	return true
}
