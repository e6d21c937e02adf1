// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mirrorkeep/blogdl"
)

// ExternalLink is a reference to media hosted on a third-party file
// host, found in a post caption or body.
type ExternalLink struct {
	// ID is the host's identifier for the file.
	ID string
	// Raw is the link as found on the page.
	Raw string
}

// HostResolver detects links to one external file host and turns them
// into direct download URLs.
type HostResolver interface {
	Name() string
	Kind() blogdl.Kind
	Detect(body string) []ExternalLink
	BuildURL(l ExternalLink, preferredVariant string) string
}

// anchorResolver detects anchors whose host matches a suffix and derives
// the file ID from the link's last path segment.
type anchorResolver struct {
	name  string
	kind  blogdl.Kind
	host  string
	build func(l ExternalLink, preferred string) string
}

func (r *anchorResolver) Name() string {
	return r.name
}

func (r *anchorResolver) Kind() blogdl.Kind {
	return r.kind
}

func (r *anchorResolver) Detect(body string) []ExternalLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	var out []ExternalLink
	seen := map[string]struct{}{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		u, err := url.Parse(href)
		if err != nil || u.Host == "" {
			return
		}
		if !hostMatches(u.Host, r.host) {
			return
		}
		id := strings.TrimSpace(strings.Trim(u.Path, "/"))
		if i := strings.LastIndex(id, "/"); i >= 0 {
			id = id[i+1:]
		}
		if i := strings.LastIndex(id, "."); i >= 0 {
			id = id[:i]
		}
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, ExternalLink{ID: id, Raw: href})
	})
	return out
}

func (r *anchorResolver) BuildURL(l ExternalLink, preferred string) string {
	return r.build(l, preferred)
}

func hostMatches(host, suffix string) bool {
	host = strings.ToLower(host)
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

// DefaultResolvers returns resolvers for the supported external hosts.
// Links to any other host are ignored.
func DefaultResolvers() []HostResolver {
	return []HostResolver{
		&anchorResolver{
			name: "imgur",
			kind: blogdl.Photo,
			host: "imgur.com",
			build: func(l ExternalLink, _ string) string {
				if strings.Contains(l.Raw, "i.imgur.com/") {
					return l.Raw
				}
				return "https://i.imgur.com/" + l.ID + ".jpg"
			},
		},
		&anchorResolver{
			name: "gfycat",
			kind: blogdl.Video,
			host: "gfycat.com",
			build: func(l ExternalLink, preferred string) string {
				if preferred == "webm" {
					return "https://giant.gfycat.com/" + l.ID + ".webm"
				}
				return "https://giant.gfycat.com/" + l.ID + ".mp4"
			},
		},
		&anchorResolver{
			name: "webmshare",
			kind: blogdl.Video,
			host: "webmshare.com",
			build: func(l ExternalLink, _ string) string {
				return "https://s1.webmshare.com/" + l.ID + ".webm"
			},
		},
	}
}
