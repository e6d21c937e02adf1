// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package crawl

import (
	"context"

	"github.com/mirrorkeep/blogdl"
	"github.com/mirrorkeep/blogdl/extract"
	"github.com/mirrorkeep/blogdl/fetch"
)

// Cursor addresses one page of results. Index is the page ordinal used
// by offset pagination; Token carries the opaque continuation value for
// cursor pagination and is empty on the first page.
type Cursor struct {
	Index int
	Token string
}

// Page is the result of fetching one page.
type Page struct {
	Posts []blogdl.Post
	// Empty marks an exhausted page; the worker that sees it stops.
	// A page whose posts were all rejected by the admission filter has
	// no Posts but is not Empty.
	Empty bool
	// HighestID/LowestID bound the numeric post IDs on the page; zero
	// when the page carries no numeric IDs.
	HighestID uint64
	LowestID  uint64
	// NextToken is the continuation for cursor pagination.
	NextToken string
}

// Pager is the pagination strategy that specializes the generic crawler
// to one blog type.
type Pager interface {
	// Fetch retrieves and extracts one page.
	Fetch(ctx context.Context, c Cursor) (Page, error)
	// Concurrent reports whether pages may be fetched by interleaved
	// workers. Cursor pagination is inherently serial.
	Concurrent() bool
}

// pageBounds computes the numeric ID bounds of a page's posts. Opaque
// IDs are ignored.
func pageBounds(posts []blogdl.Post) (highest, lowest uint64) {
	for _, p := range posts {
		id := p.NumericID()
		if id == 0 {
			continue
		}
		if id > highest {
			highest = id
		}
		if lowest == 0 || id < lowest {
			lowest = id
		}
	}
	return
}

// OffsetPager paginates rendered HTML pages addressed by page index and
// extracts posts by scraping.
type OffsetPager struct {
	client    *fetch.Client
	extractor *extract.Extractor
	pageURL   func(index int) string
}

// NewOffsetPager returns a Pager that fetches pageURL(index) and runs
// the extractor over the body.
func NewOffsetPager(client *fetch.Client, extractor *extract.Extractor, pageURL func(index int) string) *OffsetPager {
	return &OffsetPager{client: client, extractor: extractor, pageURL: pageURL}
}

// Concurrent implements Pager.
func (p *OffsetPager) Concurrent() bool {
	return true
}

// Fetch implements Pager.
func (p *OffsetPager) Fetch(ctx context.Context, c Cursor) (Page, error) {
	body, err := p.client.Text(ctx, p.pageURL(c.Index))
	if err != nil {
		return Page{}, err
	}
	var posts []blogdl.Post
	for post := range p.extractor.Posts(body) {
		posts = append(posts, post)
	}
	page := Page{Posts: posts, Empty: len(posts) == 0}
	page.HighestID, page.LowestID = pageBounds(posts)
	return page, nil
}
