// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/mirrorkeep/blogdl"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Candidate is a raw match produced by a Matcher, before policy is
// applied.
type Candidate struct {
	URL           string
	ID            string
	Timestamp     time.Time
	Tags          []string
	RebloggedFrom string
}

// Matcher scans a page body for candidates of a single kind.
type Matcher interface {
	Kind() blogdl.Kind
	Match(body string) []Candidate
}

// RegexMatcher matches candidates with a regular expression. The named
// groups 'url' and 'id' populate the candidate; both are optional but at
// least one must be present in the pattern.
type RegexMatcher struct {
	kind blogdl.Kind
	re   *regexp.Regexp
}

// NewRegexMatcher returns a matcher for the given kind and pattern.
func NewRegexMatcher(kind blogdl.Kind, re *regexp.Regexp) *RegexMatcher {
	return &RegexMatcher{kind: kind, re: re}
}

// Kind implements Matcher.
func (m *RegexMatcher) Kind() blogdl.Kind {
	return m.kind
}

// Match implements Matcher.
func (m *RegexMatcher) Match(body string) []Candidate {
	var out []Candidate
	urlIdx := m.re.SubexpIndex("url")
	idIdx := m.re.SubexpIndex("id")
	for _, groups := range m.re.FindAllStringSubmatch(body, -1) {
		var cand Candidate
		if urlIdx >= 0 {
			cand.URL = groups[urlIdx]
		}
		if idIdx >= 0 {
			cand.ID = groups[idIdx]
		}
		out = append(out, cand)
	}
	return out
}

// mediaExtensions maps binary kinds to the file extensions recognised by
// the HTML matcher.
var mediaExtensions = map[blogdl.Kind][]string{
	blogdl.Photo: {".jpg", ".jpeg", ".png", ".gif", ".gifv", ".webp"},
	blogdl.Video: {".mp4", ".mov", ".webm", ".mkv"},
	blogdl.Audio: {".mp3", ".m4a", ".wav", ".ogg", ".flac"},
}

// HTMLMediaMatcher walks an HTML document and collects media URLs of a
// single kind from img/video/audio/source/a elements.
type HTMLMediaMatcher struct {
	kind blogdl.Kind
}

// NewHTMLMediaMatcher returns an HTML matcher for a binary kind.
func NewHTMLMediaMatcher(kind blogdl.Kind) *HTMLMediaMatcher {
	return &HTMLMediaMatcher{kind: kind}
}

// Kind implements Matcher.
func (m *HTMLMediaMatcher) Kind() blogdl.Kind {
	return m.kind
}

// Match implements Matcher. Malformed markup is tolerated: the html
// parser recovers and whatever was parsed is scanned.
func (m *HTMLMediaMatcher) Match(body string) []Candidate {
	node, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []Candidate
	m.walk(node, seen, &out)
	return out
}

func (m *HTMLMediaMatcher) walk(n *html.Node, seen map[string]struct{}, out *[]Candidate) {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if !m.mediaAttr(n.DataAtom, a.Key) {
				continue
			}
			u := strings.TrimSpace(a.Val)
			if !m.matchesKind(u) {
				continue
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			*out = append(*out, Candidate{URL: u, ID: idAttr(n)})
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		m.walk(c, seen, out)
	}
}

func (m *HTMLMediaMatcher) mediaAttr(el atom.Atom, key string) bool {
	switch el {
	case atom.Img:
		return key == "src" || key == "data-src"
	case atom.Video, atom.Audio, atom.Source:
		return key == "src"
	case atom.A:
		return key == "href"
	}
	return false
}

func (m *HTMLMediaMatcher) matchesKind(u string) bool {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return false
	}
	name := strings.ToLower(blogdl.Filename(u))
	for _, ext := range mediaExtensions[m.kind] {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// idAttr returns the enclosing element's data-post-id attribute when
// present. Legacy pages carry no post identifier at all.
func idAttr(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "data-post-id" {
			return a.Val
		}
	}
	return ""
}

// DefaultMatchers returns the standard matcher set: HTML media matchers
// for the binary kinds. Text-like kinds are produced by the structured
// API pager rather than page scraping.
func DefaultMatchers() []Matcher {
	return []Matcher{
		NewHTMLMediaMatcher(blogdl.Photo),
		NewHTMLMediaMatcher(blogdl.Video),
		NewHTMLMediaMatcher(blogdl.Audio),
	}
}
