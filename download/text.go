// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mirrorkeep/blogdl"
)

// URLListManifest receives media URLs when the blog is configured for
// URL-list mode instead of binary fetches.
const URLListManifest = "urls.txt"

// ManifestName returns the per-kind manifest file name for text-like
// posts.
func ManifestName(k blogdl.Kind) string {
	return k.String() + "s.txt"
}

// Formatter serializes a text-like post into one manifest record.
type Formatter func(blogdl.Post) string

// FormatPost is the default manifest record: tab-separated ID,
// timestamp, tags and body, one line per post.
func FormatPost(p blogdl.Post) string {
	ts := ""
	if !p.Timestamp.IsZero() {
		ts = p.Timestamp.UTC().Format(time.RFC3339)
	}
	body := strings.ReplaceAll(p.URL, "\n", " ")
	return fmt.Sprintf("%v\t%v\t%v\t%v", p.ID, ts, strings.Join(p.Tags, ","), body)
}

// text handles one text-like item: dedup by post ID and append to the
// kind's manifest.
func (d *Downloader) text(post blogdl.Post) error {
	if !d.cfg.ForceRescan && d.index.Contains(post.DedupKey()) {
		return nil
	}
	if err := d.manifests.appendLine(ManifestName(post.Kind), d.opts.formatter(post)); err != nil {
		return err
	}
	d.stats.CountDownloaded(post.Kind)
	return d.index.Add(post.DedupKey())
}

// manifestSet serializes appends to the per-kind manifest files. One
// mutex per file keeps records whole under concurrent writers.
type manifestSet struct {
	dir string
	mu  sync.Mutex
	// per-file locks, created on first use
	locks map[string]*sync.Mutex
}

func newManifestSet(dir string) *manifestSet {
	return &manifestSet{dir: dir, locks: map[string]*sync.Mutex{}}
}

func (m *manifestSet) lockFor(name string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	return l
}

func (m *manifestSet) appendLine(name, line string) error {
	l := m.lockFor(name)
	l.Lock()
	defer l.Unlock()
	f, err := os.OpenFile(filepath.Join(m.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
