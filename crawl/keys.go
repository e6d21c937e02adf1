// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package crawl

import "sync"

// KeyRing rotates through a set of API keys when the current one is
// rate limited. It is shared by all page workers of a crawl.
type KeyRing struct {
	mu      sync.Mutex
	keys    []string
	current int
	rotated int
}

// NewKeyRing returns a ring over the supplied keys. An empty ring
// yields empty keys and never rotates.
func NewKeyRing(keys []string) *KeyRing {
	return &KeyRing{keys: keys}
}

// Current returns the key in use.
func (r *KeyRing) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return ""
	}
	return r.keys[r.current]
}

// Rotate advances to the next key and reports whether an untried key
// remains. Once every key has been tried rotation stops.
func (r *KeyRing) Rotate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 || r.rotated >= len(r.keys)-1 {
		return false
	}
	r.rotated++
	r.current = (r.current + 1) % len(r.keys)
	return true
}
