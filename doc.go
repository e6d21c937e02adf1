// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package blogdl defines the shared data model for the blog crawl/download
// engine: typed posts, per-blog download policy, run statistics and the
// progress reporting and pause primitives shared by the crawler and
// downloader. The engine itself is assembled from the crawl, download,
// extract, queue, dedup and store packages.
package blogdl
