// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package crawl

// DetermineDuplicates returns the number of duplicate URLs in the
// slice: the sum over groups of identical URLs of (group size - 1).
// Duplicates are still downloaded once via the downloader's dedup, but
// are subtracted from the reported totals.
func DetermineDuplicates(urls []string) int64 {
	counts := make(map[string]int, len(urls))
	for _, u := range urls {
		counts[u]++
	}
	var dups int64
	for _, n := range counts {
		if n > 1 {
			dups += int64(n - 1)
		}
	}
	return dups
}
