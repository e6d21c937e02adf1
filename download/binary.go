// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package download

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"cloudeng.io/errors"
	"github.com/dustin/go-humanize"
	"github.com/mirrorkeep/blogdl"
	"github.com/mirrorkeep/blogdl/fetch"
	"github.com/mirrorkeep/blogdl/ratecontrol"
)

// binary handles one media item: dedup, URL-list mode, resumable fetch,
// timestamping and index update.
func (d *Downloader) binary(ctx context.Context, post blogdl.Post) error {
	filename := blogdl.Filename(post.URL)
	dest := filepath.Join(d.cfg.DownloadLocation, filename)
	key := post.DedupKey()

	if !d.cfg.ForceRescan {
		if d.index.Contains(key) {
			d.opts.reporter.Report("%v: skipped %v", d.cfg.Name, filename)
			return nil
		}
		if d.cfg.CheckDirectory && !d.cfg.URLListOnly {
			if _, err := os.Stat(dest); err == nil {
				d.opts.reporter.Report("%v: skipped %v (on disk)", d.cfg.Name, filename)
				return d.index.Add(key)
			}
		}
	}

	if d.cfg.URLListOnly {
		if err := d.manifests.appendLine(URLListManifest, post.URL); err != nil {
			return err
		}
		d.stats.CountDownloaded(post.Kind)
		return d.index.Add(key)
	}

	size, err := d.fetchBinary(ctx, post.URL, dest)
	if err != nil {
		if isFileInUse(err) {
			// A concurrent run holds the file; assume it completes the
			// download.
			d.opts.reporter.Report("%v: skipped %v (in use)", d.cfg.Name, filename)
			return nil
		}
		if fetch.IsStatus(err) {
			// The server answered with an error: whatever was written
			// is not resumable, remove it. The failure stays with this
			// item.
			os.Remove(dest)
		}
		return err
	}

	if !post.Timestamp.IsZero() {
		// Preserves the post's publication time on the downloaded file.
		os.Chtimes(dest, post.Timestamp, post.Timestamp)
	}
	d.stats.CountDownloaded(post.Kind)
	d.stats.RecordLast(post.Kind, dest)
	d.opts.reporter.Report("%v: downloaded %v (%v)", d.cfg.Name, filename, humanize.Bytes(uint64(size)))
	return d.index.Add(key)
}

// fetchBinary downloads url to dest, resuming from any partial file
// already present. Transient network failures are retried with
// exponential backoff up to the configured attempt bound, re-stating
// the partial file between attempts so each retry resumes rather than
// restarts.
func (d *Downloader) fetchBinary(ctx context.Context, url, dest string) (int64, error) {
	start := existingSize(dest)
	if start > 0 {
		total, err := d.client.ContentLength(ctx, url)
		if err == nil && total > 0 && start >= total {
			// Already complete: no range request is issued.
			return start, nil
		}
	}
	backoff := ratecontrol.NewExponentialBackoff(d.opts.backoffWait, d.opts.retries)
	for {
		size, err := d.fetchOnce(ctx, url, dest, start)
		if err == nil || !fetch.IsTransient(err) {
			return size, err
		}
		if done, werr := backoff.Wait(ctx); done || werr != nil {
			return size, err
		}
		start = existingSize(dest)
	}
}

// fetchOnce issues a single, possibly ranged, request and appends the
// body to dest. A 200 answer to a ranged request means the server
// ignored the range, so the file is rewritten from the start.
func (d *Downloader) fetchOnce(ctx context.Context, url, dest string, start int64) (int64, error) {
	var ropts []fetch.RequestOption
	if start > 0 {
		ropts = append(ropts, fetch.WithRangeFrom(start))
	}
	resp, err := d.client.Do(ctx, url, ropts...)
	if err != nil {
		return existingSize(dest), err
	}
	defer resp.Close()
	offset := start
	if resp.StatusCode == http.StatusOK {
		offset = 0
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return 0, err
	}
	errs := errors.M{}
	if err := f.Truncate(offset); err != nil {
		errs.Append(err)
	} else if _, err := f.Seek(offset, io.SeekStart); err != nil {
		errs.Append(err)
	} else if _, err := io.Copy(f, resp); err != nil {
		errs.Append(fetch.Classify(ctx, err))
	}
	errs.Append(f.Close())
	return existingSize(dest), errs.Err()
}

func existingSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
