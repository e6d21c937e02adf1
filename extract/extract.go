// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package extract turns fetched page bodies into typed posts. Extraction
// is a pure function of the page body and the blog's policy: per-kind
// matchers scan the body, media URLs are rewritten to the preferred size
// and links to known external file hosts are resolved via per-host
// resolvers. Unknown hosts are ignored.
package extract

import (
	"iter"
	"strings"

	"github.com/google/uuid"
	"github.com/mirrorkeep/blogdl"
)

// Config is the extraction policy derived from a blog's configuration.
type Config struct {
	// Kinds are the enabled post kinds; matchers for other kinds are
	// not run.
	Kinds blogdl.KindSet
	// PreferredSize is substituted for the size token of media URLs.
	PreferredSize string
	// SkipGIF drops animated GIF media.
	SkipGIF bool
	// ResolveExternal enables the external host resolvers.
	ResolveExternal bool
	// Filter admits or rejects candidate posts.
	Filter Filter
	// Matchers override the default per-kind matchers when non-nil.
	Matchers []Matcher
	// Resolvers override the default host resolvers when non-nil.
	Resolvers []HostResolver
}

// Extractor implements extraction for a single blog configuration.
type Extractor struct {
	cfg       Config
	matchers  []Matcher
	resolvers []HostResolver
}

// New creates an Extractor for the supplied policy.
func New(cfg Config) *Extractor {
	e := &Extractor{cfg: cfg, matchers: cfg.Matchers, resolvers: cfg.Resolvers}
	if e.matchers == nil {
		e.matchers = DefaultMatchers()
	}
	if e.resolvers == nil {
		e.resolvers = DefaultResolvers()
	}
	return e
}

// Posts returns a lazy, restartable sequence of the typed posts found in
// body. Candidates in permanently excluded categories (avatars,
// thumbnails), skipped GIFs and posts rejected by the configured filter
// are omitted.
func (e *Extractor) Posts(body string) iter.Seq[blogdl.Post] {
	return func(yield func(blogdl.Post) bool) {
		for _, m := range e.matchers {
			if !e.cfg.Kinds.Has(m.Kind()) {
				continue
			}
			for _, cand := range m.Match(body) {
				post, ok := e.post(m.Kind(), cand)
				if !ok {
					continue
				}
				if !yield(post) {
					return
				}
			}
		}
		if !e.cfg.ResolveExternal {
			return
		}
		for _, r := range e.resolvers {
			if !e.cfg.Kinds.Has(r.Kind()) {
				continue
			}
			for _, link := range r.Detect(body) {
				cand := Candidate{
					URL: r.BuildURL(link, e.cfg.PreferredSize),
					ID:  link.ID,
				}
				post, ok := e.post(r.Kind(), cand)
				if !ok {
					continue
				}
				if !yield(post) {
					return
				}
			}
		}
	}
}

// post converts a candidate into an admitted Post, generating an opaque
// ID for inline items the source exposes no identifier for.
func (e *Extractor) post(kind blogdl.Kind, cand Candidate) (blogdl.Post, bool) {
	u := cand.URL
	if kind.Binary() {
		if excludedURL(u) {
			return blogdl.Post{}, false
		}
		if e.cfg.SkipGIF && isGIF(u) {
			return blogdl.Post{}, false
		}
		u = ResizeURL(u, e.cfg.PreferredSize)
	}
	id := cand.ID
	if id == "" {
		id = uuid.NewString()
	}
	post := blogdl.Post{
		Kind:          kind,
		URL:           u,
		ID:            id,
		Timestamp:     cand.Timestamp,
		Tags:          cand.Tags,
		RebloggedFrom: cand.RebloggedFrom,
	}
	if post.Validate() != nil {
		return blogdl.Post{}, false
	}
	if !e.cfg.Filter.Admit(post) {
		return blogdl.Post{}, false
	}
	return post, true
}

func isGIF(u string) bool {
	name := strings.ToLower(blogdl.Filename(u))
	return strings.HasSuffix(name, ".gif") || strings.HasSuffix(name, ".gifv")
}
