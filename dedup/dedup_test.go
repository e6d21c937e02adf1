// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package dedup_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mirrorkeep/blogdl/dedup"
)

func TestLoadAddReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b_files.txt")
	idx, err := dedup.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := idx.Len(), 0; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	for _, key := range []string{"a.jpg", "b.mp4", "a.jpg"} {
		if err := idx.Add(key); err != nil {
			t.Fatal(err)
		}
	}
	if !idx.Contains("a.jpg") || !idx.Contains("b.mp4") || idx.Contains("c.png") {
		t.Errorf("unexpected membership")
	}
	if got, want := idx.Len(), 2; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	// Adding a present key appends nothing: the file holds each
	// identifier exactly once.
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := strings.Count(string(buf), "a.jpg"), 1; got != want {
		t.Errorf("got %v occurrences, want %v", got, want)
	}

	reloaded, err := dedup.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reloaded.Close()
	if !reloaded.Contains("a.jpg") || !reloaded.Contains("b.mp4") {
		t.Errorf("reloaded index missing keys")
	}
	if err := reloaded.Add("c.png"); err != nil {
		t.Fatal(err)
	}
	if got, want := reloaded.Len(), 3; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestConcurrentAdds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.txt")
	idx, err := dedup.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, key := range []string{"x", "y", "z"} {
				if err := idx.Add(key); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()
	if got, want := idx.Len(), 3; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Fields(string(buf))
	if got, want := len(lines), 3; got != want {
		t.Errorf("got %v lines, want %v: %q", got, want, lines)
	}
}
