// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package crawl_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mirrorkeep/blogdl"
	"github.com/mirrorkeep/blogdl/crawl"
	"github.com/mirrorkeep/blogdl/fetch"
)

func newClient(t *testing.T) *fetch.Client {
	t.Helper()
	client, err := fetch.New()
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestAPIPagerKeyRotation(t *testing.T) {
	// The first key is rate limited; the pager rotates to the second
	// and retries the same page transparently.
	var mu sync.Mutex
	keysSeen := []string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("api_key")
		mu.Lock()
		keysSeen = append(keysSeen, key)
		mu.Unlock()
		if key == "bad" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprintf(w, `{"response":{"posts":[
			{"id":42,"type":"photo","timestamp":1700000000,"tags":["cats"],"photo_url":"https://m.example.com/x_500.jpg"}
		]}}`)
	}))
	defer srv.Close()

	cfg := &blogdl.BlogConfig{
		Name:           "b",
		APIKeys:        []string{"bad", "good"},
		Kinds:          blogdl.NewKindSet(blogdl.Photo),
		PreferredSize:  "1280",
		IncludeReblogs: true,
	}
	pager := crawl.NewAPIPager(newClient(t), cfg, srv.URL, 25, nil)
	page, err := pager.Fetch(context.Background(), crawl.Cursor{Index: 0})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if got, want := len(keysSeen), 2; got != want {
		t.Fatalf("got %v requests, want %v: %v", got, want, keysSeen)
	}
	if keysSeen[0] != "bad" || keysSeen[1] != "good" {
		t.Errorf("unexpected key order: %v", keysSeen)
	}
	if got, want := len(page.Posts), 1; got != want {
		t.Fatalf("got %v posts, want %v", got, want)
	}
	post := page.Posts[0]
	if got, want := post.URL, "https://m.example.com/x_1280.jpg"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := post.ID, "42"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := page.HighestID, uint64(42); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAPIPagerExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{"posts":[]}}`)
	}))
	defer srv.Close()
	cfg := &blogdl.BlogConfig{Name: "b", Kinds: blogdl.NewKindSet(blogdl.Photo)}
	pager := crawl.NewAPIPager(newClient(t), cfg, srv.URL, 25, nil)
	page, err := pager.Fetch(context.Background(), crawl.Cursor{Index: 3})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !page.Empty {
		t.Errorf("empty response must mark the page exhausted")
	}
}

func TestAPIPagerOffsets(t *testing.T) {
	var mu sync.Mutex
	offsets := []string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		offsets = append(offsets, r.URL.Query().Get("offset"))
		mu.Unlock()
		fmt.Fprint(w, `{"response":{"posts":[]}}`)
	}))
	defer srv.Close()
	cfg := &blogdl.BlogConfig{Name: "b", Kinds: blogdl.NewKindSet(blogdl.Photo)}
	pager := crawl.NewAPIPager(newClient(t), cfg, srv.URL, 25, nil)
	for _, idx := range []int{0, 1, 2} {
		if _, err := pager.Fetch(context.Background(), crawl.Cursor{Index: idx}); err != nil {
			t.Fatal(err)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	want := []string{"0", "25", "50"}
	for i, w := range want {
		if offsets[i] != w {
			t.Errorf("page %v: got offset %v, want %v", i, offsets[i], w)
		}
	}
}

func TestCursorPager(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprint(w, `{"response":{"posts":[
				{"id":9,"type":"photo","photo_url":"https://m/a.jpg"}],"next_token":"t1"}}`)
		case "t1":
			fmt.Fprint(w, `{"response":{"posts":[
				{"id":8,"type":"photo","photo_url":"https://m/b.jpg"}]}}`)
		default:
			http.Error(w, "bad cursor", http.StatusBadRequest)
		}
	}))
	defer srv.Close()
	cfg := &blogdl.BlogConfig{Name: "b", Kinds: blogdl.NewKindSet(blogdl.Photo), IncludeReblogs: true}
	pager := crawl.NewCursorPager(newClient(t), cfg, srv.URL, nil)
	if pager.Concurrent() {
		t.Fatalf("cursor pagination must be serial")
	}
	first, err := pager.Fetch(context.Background(), crawl.Cursor{})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := first.NextToken, "t1"; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	second, err := pager.Fetch(context.Background(), crawl.Cursor{Index: 1, Token: first.NextToken})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := second.NextToken, ""; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if len(first.Posts) != 1 || len(second.Posts) != 1 {
		t.Errorf("got %v/%v posts, want 1/1", len(first.Posts), len(second.Posts))
	}
}

func TestFeedPager(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>b</title>
<item>
  <title>a photo</title>
  <link>https://b.example.com/post/123</link>
  <guid>https://b.example.com/post/123</guid>
  <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
  <category>cats</category>
  <enclosure url="https://m.example.com/p_500.jpg" type="image/jpeg" length="1"/>
</item>
<item>
  <title>words</title>
  <link>https://b.example.com/post/122</link>
  <guid>https://b.example.com/post/122</guid>
</item>
</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("paged") == "1" {
			fmt.Fprint(w, feed)
			return
		}
		fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>b</title></channel></rss>`)
	}))
	defer srv.Close()

	cfg := &blogdl.BlogConfig{
		Name:           "b",
		Kinds:          blogdl.NewKindSet(blogdl.Photo, blogdl.Text),
		PreferredSize:  "1280",
		IncludeReblogs: true,
	}
	pager := crawl.NewFeedPager(newClient(t), cfg, func(index int) string {
		return fmt.Sprintf("%v/feed?paged=%v", srv.URL, index+1)
	})
	page, err := pager.Fetch(context.Background(), crawl.Cursor{Index: 0})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(page.Posts), 2; got != want {
		t.Fatalf("got %v posts, want %v: %v", got, want, page.Posts)
	}
	photo, text := page.Posts[0], page.Posts[1]
	if photo.Kind != blogdl.Photo || text.Kind != blogdl.Text {
		t.Errorf("got kinds %v/%v, want photo/text", photo.Kind, text.Kind)
	}
	if got, want := photo.URL, "https://m.example.com/p_1280.jpg"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := photo.ID, "123"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if photo.Timestamp.IsZero() {
		t.Errorf("expected a parsed timestamp")
	}
	if got, want := page.HighestID, uint64(123); got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	empty, err := pager.Fetch(context.Background(), crawl.Cursor{Index: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !empty.Empty {
		t.Errorf("empty feed page must mark exhaustion")
	}
}
