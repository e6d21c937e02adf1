// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mirrorkeep/blogdl"
	"github.com/mirrorkeep/blogdl/extract"
	"github.com/mirrorkeep/blogdl/fetch"
)

// apiEnvelope is the JSON shape returned by the structured post API.
type apiEnvelope struct {
	Response struct {
		Posts     []apiPost `json:"posts"`
		NextToken string    `json:"next_token"`
	} `json:"response"`
}

type apiPost struct {
	ID            json.Number `json:"id"`
	Type          string      `json:"type"`
	Timestamp     int64       `json:"timestamp"`
	Tags          []string    `json:"tags"`
	RebloggedFrom string      `json:"reblogged_from_name"`
	PhotoURL      string      `json:"photo_url"`
	VideoURL      string      `json:"video_url"`
	AudioURL      string      `json:"audio_url"`
	Body          string      `json:"body"`
}

// apiPolicy is the post admission and rewriting policy shared by the
// structured pagers.
type apiPolicy struct {
	kinds         blogdl.KindSet
	filter        extract.Filter
	preferredSize string
	skipGIF       bool
}

func policyFor(cfg *blogdl.BlogConfig) apiPolicy {
	return apiPolicy{
		kinds:         cfg.Kinds,
		filter:        extract.FilterFor(cfg),
		preferredSize: cfg.PreferredSize,
		skipGIF:       cfg.SkipGIF,
	}
}

// posts converts the envelope's posts, applying kind selection, size
// rewriting, GIF policy and the admission filter. Malformed entries are
// skipped.
func (p apiPolicy) posts(env apiEnvelope) []blogdl.Post {
	var out []blogdl.Post
	for _, ap := range env.Response.Posts {
		kind, err := blogdl.ParseKind(ap.Type)
		if err != nil || !p.kinds.Has(kind) {
			continue
		}
		post := blogdl.Post{
			Kind:          kind,
			ID:            ap.ID.String(),
			Tags:          ap.Tags,
			RebloggedFrom: ap.RebloggedFrom,
		}
		if ap.Timestamp > 0 {
			post.Timestamp = time.Unix(ap.Timestamp, 0).UTC()
		}
		switch kind {
		case blogdl.Photo:
			post.URL = extract.ResizeURL(ap.PhotoURL, p.preferredSize)
		case blogdl.Video:
			post.URL = ap.VideoURL
		case blogdl.Audio:
			post.URL = ap.AudioURL
		default:
			post.URL = ap.Body
		}
		if p.skipGIF && kind == blogdl.Photo && isGIFName(post.URL) {
			continue
		}
		if post.Validate() != nil || !p.filter.Admit(post) {
			continue
		}
		out = append(out, post)
	}
	return out
}

func isGIFName(u string) bool {
	name := strings.ToLower(blogdl.Filename(u))
	return strings.HasSuffix(name, ".gif") || strings.HasSuffix(name, ".gifv")
}

// APIPager paginates the structured post API using offset addressing
// and rotates API keys when rate limited.
type APIPager struct {
	client  *fetch.Client
	baseURL string
	limit   int
	keys    *KeyRing
	policy  apiPolicy
}

// NewAPIPager returns a Pager over baseURL with limit posts per page.
// The key ring may be shared across blogs using the same credentials.
func NewAPIPager(client *fetch.Client, cfg *blogdl.BlogConfig, baseURL string, limit int, keys *KeyRing) *APIPager {
	if limit <= 0 {
		limit = 50
	}
	if keys == nil {
		keys = NewKeyRing(cfg.APIKeys)
	}
	return &APIPager{
		client:  client,
		baseURL: baseURL,
		limit:   limit,
		keys:    keys,
		policy:  policyFor(cfg),
	}
}

// Concurrent implements Pager.
func (p *APIPager) Concurrent() bool {
	return true
}

// Fetch implements Pager. A rate-limited request is retried with the
// next key on the ring; the 429 is surfaced only when every key has
// been tried.
func (p *APIPager) Fetch(ctx context.Context, c Cursor) (Page, error) {
	for {
		body, err := p.client.Text(ctx, p.pageURL(c.Index))
		if err != nil {
			if fetch.IsRateLimited(err) && p.keys.Rotate() {
				continue
			}
			return Page{}, err
		}
		var env apiEnvelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			return Page{}, fmt.Errorf("page %v: %w", c.Index, err)
		}
		// Exhaustion is signalled by the raw response, not the filtered
		// post set: a page of filtered-out posts is not the end.
		page := Page{Posts: p.policy.posts(env), Empty: len(env.Response.Posts) == 0}
		page.HighestID, page.LowestID = pageBounds(page.Posts)
		return page, nil
	}
}

func (p *APIPager) pageURL(index int) string {
	v := url.Values{}
	v.Set("offset", strconv.Itoa(index*p.limit))
	v.Set("limit", strconv.Itoa(p.limit))
	if key := p.keys.Current(); key != "" {
		v.Set("api_key", key)
	}
	return p.baseURL + "?" + v.Encode()
}

// CursorPager paginates the structured post API using an opaque
// continuation token. Token pagination cannot be partitioned, so the
// crawler runs it with a single worker.
type CursorPager struct {
	client  *fetch.Client
	baseURL string
	keys    *KeyRing
	policy  apiPolicy
}

// NewCursorPager returns a serial Pager over baseURL.
func NewCursorPager(client *fetch.Client, cfg *blogdl.BlogConfig, baseURL string, keys *KeyRing) *CursorPager {
	if keys == nil {
		keys = NewKeyRing(cfg.APIKeys)
	}
	return &CursorPager{
		client:  client,
		baseURL: baseURL,
		keys:    keys,
		policy:  policyFor(cfg),
	}
}

// Concurrent implements Pager.
func (p *CursorPager) Concurrent() bool {
	return false
}

// Fetch implements Pager.
func (p *CursorPager) Fetch(ctx context.Context, c Cursor) (Page, error) {
	for {
		body, err := p.client.Text(ctx, p.pageURL(c.Token))
		if err != nil {
			if fetch.IsRateLimited(err) && p.keys.Rotate() {
				continue
			}
			return Page{}, err
		}
		var env apiEnvelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			return Page{}, fmt.Errorf("cursor %q: %w", c.Token, err)
		}
		page := Page{
			Posts:     p.policy.posts(env),
			Empty:     len(env.Response.Posts) == 0,
			NextToken: env.Response.NextToken,
		}
		page.HighestID, page.LowestID = pageBounds(page.Posts)
		return page, nil
	}
}

func (p *CursorPager) pageURL(token string) string {
	v := url.Values{}
	if token != "" {
		v.Set("cursor", token)
	}
	if key := p.keys.Current(); key != "" {
		v.Set("api_key", key)
	}
	if len(v) == 0 {
		return p.baseURL
	}
	return p.baseURL + "?" + v.Encode()
}
