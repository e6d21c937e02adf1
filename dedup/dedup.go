// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package dedup implements the per-blog download index: an append-only
// file of identifiers, one per line, loaded fully into memory at run
// start. An identifier in the index is never downloaded again unless
// the blog is force-rescanned.
package dedup

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"cloudeng.io/errors"
)

// Index is a persistent set of download identifiers. All methods are
// safe for concurrent use.
type Index struct {
	mu   sync.Mutex
	path string
	keys map[string]struct{}
	f    *os.File
}

// Load reads the index file at path, creating an empty index when the
// file does not exist. The file is kept open for appending.
func Load(path string) (*Index, error) {
	idx := &Index{path: path, keys: map[string]struct{}{}}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key := strings.TrimSpace(sc.Text())
		if key != "" {
			idx.keys[key] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, err
	}
	idx.f = f
	return idx, nil
}

// Contains reports whether key has been downloaded before.
func (i *Index) Contains(key string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.keys[key]
	return ok
}

// Add records key in memory and appends it to the index file. The
// write completes before Add returns, so a cancelled run retains
// exactly the identifiers of finished downloads. Adding a present key
// is a no-op.
func (i *Index) Add(key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.keys[key]; ok {
		return nil
	}
	if _, err := i.f.WriteString(key + "\n"); err != nil {
		return err
	}
	i.keys[key] = struct{}{}
	return nil
}

// Len returns the number of indexed identifiers.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.keys)
}

// Flush forces the appended identifiers to stable storage.
func (i *Index) Flush() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.f.Sync()
}

// Close flushes and closes the index file.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	errs := errors.M{}
	errs.Append(i.f.Sync())
	errs.Append(i.f.Close())
	return errs.Err()
}
