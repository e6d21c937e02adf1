// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package blogdl

// Aggregate is a blog's persisted post-run state: the statistics
// snapshot and the incremental-crawl watermark. It is written exactly
// once per run, after both the crawler and downloader have finished, so
// the stored state is always a complete run's result.
type Aggregate struct {
	Name string
	// LastSeenID is the highest numeric post ID of the last complete
	// crawl; the next incremental crawl stops when it reaches it.
	LastSeenID uint64
	Stats      Statistics
}
