// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package store persists blog aggregates in a SQLite database. One row
// per blog holds the watermark, the online flag, the last complete
// crawl time and the per-kind counters.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mirrorkeep/blogdl"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS blogs (
	name TEXT PRIMARY KEY,
	last_seen_id INTEGER NOT NULL DEFAULT 0,
	online INTEGER NOT NULL DEFAULT 0,
	last_complete_crawl TEXT NOT NULL DEFAULT '',
	total INTEGER NOT NULL DEFAULT 0,
	last_photo TEXT NOT NULL DEFAULT '',
	last_video TEXT NOT NULL DEFAULT '',
	crawled TEXT NOT NULL DEFAULT '{}',
	downloaded TEXT NOT NULL DEFAULT '{}',
	duplicates TEXT NOT NULL DEFAULT '{}'
);`

// DB is a handle on the aggregate database.
type DB struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (s *DB) Close() error {
	return s.db.Close()
}

// SaveAggregate upserts the blog's row.
func (s *DB) SaveAggregate(ctx context.Context, agg blogdl.Aggregate) error {
	crawled, err := marshalCounts(agg.Stats.Crawled)
	if err != nil {
		return err
	}
	downloaded, err := marshalCounts(agg.Stats.Downloaded)
	if err != nil {
		return err
	}
	duplicates, err := marshalCounts(agg.Stats.Duplicates)
	if err != nil {
		return err
	}
	crawlTime := ""
	if !agg.Stats.LastCompleteCrawl.IsZero() {
		crawlTime = agg.Stats.LastCompleteCrawl.UTC().Format(time.RFC3339)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO blogs
	(name, last_seen_id, online, last_complete_crawl, total,
	 last_photo, last_video, crawled, downloaded, duplicates)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	last_seen_id=excluded.last_seen_id,
	online=excluded.online,
	last_complete_crawl=excluded.last_complete_crawl,
	total=excluded.total,
	last_photo=excluded.last_photo,
	last_video=excluded.last_video,
	crawled=excluded.crawled,
	downloaded=excluded.downloaded,
	duplicates=excluded.duplicates`,
		agg.Name, int64(agg.LastSeenID), boolInt(agg.Stats.Online), crawlTime,
		agg.Stats.Total, agg.Stats.LastPhoto, agg.Stats.LastVideo,
		crawled, downloaded, duplicates)
	return err
}

// LoadAggregate returns the blog's stored aggregate; ok is false when
// the blog has never been persisted.
func (s *DB) LoadAggregate(ctx context.Context, name string) (agg blogdl.Aggregate, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `
SELECT last_seen_id, online, last_complete_crawl, total,
       last_photo, last_video, crawled, downloaded, duplicates
FROM blogs WHERE name = ?`, name)
	var (
		lastSeen                        int64
		online                          int
		crawlTime                       string
		crawled, downloaded, duplicates string
	)
	agg.Name = name
	err = row.Scan(&lastSeen, &online, &crawlTime, &agg.Stats.Total,
		&agg.Stats.LastPhoto, &agg.Stats.LastVideo,
		&crawled, &downloaded, &duplicates)
	switch {
	case err == sql.ErrNoRows:
		return blogdl.Aggregate{Name: name}, false, nil
	case err != nil:
		return blogdl.Aggregate{}, false, err
	}
	agg.LastSeenID = uint64(lastSeen)
	agg.Stats.Online = online != 0
	if crawlTime != "" {
		ts, perr := time.Parse(time.RFC3339, crawlTime)
		if perr != nil {
			return blogdl.Aggregate{}, false, fmt.Errorf("blog %v: bad crawl time %q: %w", name, crawlTime, perr)
		}
		agg.Stats.LastCompleteCrawl = ts
	}
	if agg.Stats.Crawled, err = unmarshalCounts(crawled); err != nil {
		return blogdl.Aggregate{}, false, err
	}
	if agg.Stats.Downloaded, err = unmarshalCounts(downloaded); err != nil {
		return blogdl.Aggregate{}, false, err
	}
	if agg.Stats.Duplicates, err = unmarshalCounts(duplicates); err != nil {
		return blogdl.Aggregate{}, false, err
	}
	return agg, true, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// marshalCounts serializes per-kind counters keyed by kind name, which
// is stable across reorderings of the Kind enumeration.
func marshalCounts(counts map[blogdl.Kind]int64) (string, error) {
	named := make(map[string]int64, len(counts))
	for k, n := range counts {
		named[k.String()] = n
	}
	buf, err := json.Marshal(named)
	return string(buf), err
}

func unmarshalCounts(raw string) (map[blogdl.Kind]int64, error) {
	named := map[string]int64{}
	if err := json.Unmarshal([]byte(raw), &named); err != nil {
		return nil, err
	}
	counts := make(map[blogdl.Kind]int64, len(named))
	for name, n := range named {
		k, err := blogdl.ParseKind(name)
		if err != nil {
			return nil, err
		}
		counts[k] = n
	}
	return counts, nil
}
