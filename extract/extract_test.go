// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extract_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/mirrorkeep/blogdl"
	"github.com/mirrorkeep/blogdl/extract"
)

const page = `<html><body>
<img src="https://media.example.com/a/photo_500.jpg" data-post-id="101">
<img src="https://media.example.com/avatars/avatar_128.png">
<img src="https://media.example.com/b/anim_500.gif">
<video src="https://vt.example.com/clip_480.mp4" data-post-id="102"></video>
<a href="https://imgur.com/AbCd123">external</a>
<a href="https://gfycat.com/NiftyClip">clip</a>
<a href="https://unknown-host.net/gallery/xyz">ignored-host</a>
</body></html>`

func collect(e *extract.Extractor, body string) []blogdl.Post {
	var out []blogdl.Post
	for p := range e.Posts(body) {
		out = append(out, p)
	}
	return out
}

func urls(posts []blogdl.Post) map[string]blogdl.Kind {
	m := map[string]blogdl.Kind{}
	for _, p := range posts {
		m[p.URL] = p.Kind
	}
	return m
}

func TestExtractMedia(t *testing.T) {
	e := extract.New(extract.Config{
		Kinds:           blogdl.NewKindSet(blogdl.Photo, blogdl.Video),
		PreferredSize:   "1280",
		ResolveExternal: true,
		Filter:          extract.Filter{IncludeReblogs: true},
	})
	posts := collect(e, page)
	got := urls(posts)

	want := map[string]blogdl.Kind{
		"https://media.example.com/a/photo_1280.jpg": blogdl.Photo, // resized
		"https://media.example.com/b/anim_1280.gif":  blogdl.Photo,
		"https://vt.example.com/clip_480.mp4":        blogdl.Video, // no size token
		"https://i.imgur.com/AbCd123.jpg":            blogdl.Photo,
		"https://giant.gfycat.com/NiftyClip.mp4":     blogdl.Video,
	}
	if got, want := len(got), len(want); got != want {
		t.Errorf("got %v posts, want %v: %v", got, want, posts)
	}
	for u, k := range want {
		if got[u] != k {
			t.Errorf("missing or mistyped %v: got %v, want %v", u, got[u], k)
		}
	}
	// The avatar never appears regardless of configuration.
	for u := range got {
		if u == "https://media.example.com/avatars/avatar_128.png" {
			t.Errorf("avatar must be excluded")
		}
	}
}

func TestSkipGIFAndKinds(t *testing.T) {
	e := extract.New(extract.Config{
		Kinds:   blogdl.NewKindSet(blogdl.Photo),
		SkipGIF: true,
		Filter:  extract.Filter{IncludeReblogs: true},
	})
	got := urls(collect(e, page))
	if _, ok := got["https://media.example.com/b/anim_500.gif"]; ok {
		t.Errorf("gif should be skipped")
	}
	for u, k := range got {
		if k != blogdl.Photo {
			t.Errorf("%v: kind %v extracted with only photos enabled", u, k)
		}
	}
}

func TestPostIDsAndOpaqueIDs(t *testing.T) {
	e := extract.New(extract.Config{
		Kinds:  blogdl.NewKindSet(blogdl.Photo, blogdl.Video),
		Filter: extract.Filter{IncludeReblogs: true},
	})
	byURL := map[string]blogdl.Post{}
	for _, p := range collect(e, page) {
		byURL[p.URL] = p
	}
	if got, want := byURL["https://media.example.com/a/photo_500.jpg"].ID, "101"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	// Items without a source identifier get a generated opaque one.
	if id := byURL["https://media.example.com/b/anim_500.gif"].ID; id == "" {
		t.Errorf("expected a generated id")
	}
}

func TestRestartable(t *testing.T) {
	e := extract.New(extract.Config{
		Kinds:  blogdl.NewKindSet(blogdl.Photo, blogdl.Video),
		Filter: extract.Filter{IncludeReblogs: true},
	})
	first := urls(collect(e, page))
	second := urls(collect(e, page))
	if got, want := len(second), len(first); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	for u := range first {
		if _, ok := second[u]; !ok {
			t.Errorf("second pass missing %v", u)
		}
	}
}

func TestRegexMatcher(t *testing.T) {
	re := regexp.MustCompile(`"video_url":"(?P<url>https?://[^"]+)","id":"(?P<id>\d+)"`)
	e := extract.New(extract.Config{
		Kinds:    blogdl.NewKindSet(blogdl.Video),
		Filter:   extract.Filter{IncludeReblogs: true},
		Matchers: []extract.Matcher{extract.NewRegexMatcher(blogdl.Video, re)},
	})
	body := `{"video_url":"https://vt.example.com/v1.mp4","id":"7001"}`
	posts := collect(e, body)
	if got, want := len(posts), 1; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := posts[0].ID, "7001"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTagFilterSemantics(t *testing.T) {
	filter := extract.Filter{Tags: []string{"cats", "dogs"}, IncludeReblogs: true}
	for _, tc := range []struct {
		tags []string
		want bool
	}{
		{[]string{"Cats", "birds"}, true}, // case-insensitive intersection
		{[]string{"birds"}, false},
		{nil, false},
	} {
		p := blogdl.Post{Kind: blogdl.Photo, URL: "https://x/p.jpg", ID: "1", Tags: tc.tags}
		if got := filter.Admit(p); got != tc.want {
			t.Errorf("tags %v: got %v, want %v", tc.tags, got, tc.want)
		}
	}
	// An empty filter list includes all posts.
	all := extract.Filter{IncludeReblogs: true}
	p := blogdl.Post{Kind: blogdl.Photo, URL: "https://x/p.jpg", ID: "1", Tags: []string{"birds"}}
	if !all.Admit(p) {
		t.Errorf("empty filter must admit everything")
	}
}

func TestReblogAndDateFilters(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
	}
	filter := extract.Filter{From: day(10), To: day(20)}
	post := func(ts time.Time, reblog string) blogdl.Post {
		return blogdl.Post{Kind: blogdl.Photo, URL: "https://x/p.jpg", ID: "1",
			Timestamp: ts, RebloggedFrom: reblog}
	}
	if filter.Admit(post(day(15), "someone")) {
		t.Errorf("reblog admitted with IncludeReblogs=false")
	}
	if !filter.Admit(post(day(10), "")) || !filter.Admit(post(day(20), "")) {
		t.Errorf("date bounds must be inclusive")
	}
	if filter.Admit(post(day(9), "")) || filter.Admit(post(day(21), "")) {
		t.Errorf("out-of-range timestamps admitted")
	}
	if !filter.Admit(post(time.Time{}, "")) {
		t.Errorf("posts without a timestamp must be admitted")
	}
}

func TestResizeURL(t *testing.T) {
	for _, tc := range []struct {
		in, preferred, want string
	}{
		{"https://m/x_500.jpg", "1280", "https://m/x_1280.jpg"},
		{"https://m/x_raw.jpg", "540", "https://m/x_540.jpg"},
		{"https://m/x.jpg", "1280", "https://m/x.jpg"},
		{"https://m/x_500.jpg", "", "https://m/x_500.jpg"},
		{"https://m/x_1280.jpg", "1280", "https://m/x_1280.jpg"},
	} {
		if got := extract.ResizeURL(tc.in, tc.preferred); got != tc.want {
			t.Errorf("%v/%v: got %v, want %v", tc.in, tc.preferred, got, tc.want)
		}
	}
}
