// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package blogdl

import (
	"sync"
	"time"
)

// Statistics is the immutable snapshot of a run's aggregate counters.
// Total is the number of crawled posts minus computed duplicates.
type Statistics struct {
	Total             int64
	Crawled           map[Kind]int64
	Downloaded        map[Kind]int64
	Duplicates        map[Kind]int64
	LastPhoto         string
	LastVideo         string
	Online            bool
	LastCompleteCrawl time.Time
}

// Collector accumulates per-run statistics. The crawler records crawled
// posts and duplicate counts, the downloader records completed downloads;
// all mutation is funnelled through the collector's single lock.
type Collector struct {
	mu         sync.Mutex
	crawled    [numKinds]int64
	downloaded [numKinds]int64
	duplicates [numKinds]int64
	lastPhoto  string
	lastVideo  string
	online     bool
}

func NewCollector() *Collector {
	return &Collector{}
}

// CountCrawled records one crawled post of the given kind.
func (c *Collector) CountCrawled(k Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.crawled[k]++
}

// CountDownloaded records one completed download of the given kind.
func (c *Collector) CountDownloaded(k Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.downloaded[k]++
}

// AddDuplicates records n duplicate posts for the given kind, computed by
// the crawler after pagination finishes.
func (c *Collector) AddDuplicates(k Kind, n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.duplicates[k] += n
}

// SetOnline records the result of the online check.
func (c *Collector) SetOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = online
}

func (c *Collector) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// RecordLast remembers the most recently downloaded photo or video path
// for preview purposes. Other kinds are ignored.
func (c *Collector) RecordLast(k Kind, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch k {
	case Photo:
		c.lastPhoto = path
	case Video:
		c.lastVideo = path
	}
}

// ClearLast resets the preview pointers, called at run end.
func (c *Collector) ClearLast() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPhoto, c.lastVideo = "", ""
}

// Snapshot returns a copy of the counters. Total is the crawled count
// reduced by the duplicate count.
func (c *Collector) Snapshot() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Statistics{
		Crawled:    make(map[Kind]int64),
		Downloaded: make(map[Kind]int64),
		Duplicates: make(map[Kind]int64),
		LastPhoto:  c.lastPhoto,
		LastVideo:  c.lastVideo,
		Online:     c.online,
	}
	for k := Kind(0); k < numKinds; k++ {
		if c.crawled[k] != 0 {
			st.Crawled[k] = c.crawled[k]
		}
		if c.downloaded[k] != 0 {
			st.Downloaded[k] = c.downloaded[k]
		}
		if c.duplicates[k] != 0 {
			st.Duplicates[k] = c.duplicates[k]
		}
		st.Total += c.crawled[k] - c.duplicates[k]
	}
	return st
}
