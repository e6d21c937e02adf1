// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package store_test

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mirrorkeep/blogdl"
	"github.com/mirrorkeep/blogdl/store"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "blogs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, ok, err := db.LoadAggregate(ctx, "nope"); err != nil || ok {
		t.Fatalf("got ok=%v err=%v for an unknown blog", ok, err)
	}

	agg := blogdl.Aggregate{
		Name:       "b",
		LastSeenID: 12345,
		Stats: blogdl.Statistics{
			Total:             7,
			Crawled:           map[blogdl.Kind]int64{blogdl.Photo: 8, blogdl.Text: 1},
			Downloaded:        map[blogdl.Kind]int64{blogdl.Photo: 6},
			Duplicates:        map[blogdl.Kind]int64{blogdl.Photo: 2},
			LastPhoto:         "/x/p.jpg",
			Online:            true,
			LastCompleteCrawl: time.Date(2024, 5, 1, 2, 3, 4, 0, time.UTC),
		},
	}
	if err := db.SaveAggregate(ctx, agg); err != nil {
		t.Fatal(err)
	}
	got, ok, err := db.LoadAggregate(ctx, "b")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, agg) {
		t.Errorf("got %+v, want %+v", got, agg)
	}

	// Upsert overwrites the previous run's row.
	agg.LastSeenID = 20000
	agg.Stats.Online = false
	if err := db.SaveAggregate(ctx, agg); err != nil {
		t.Fatal(err)
	}
	got, _, err = db.LoadAggregate(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if got.LastSeenID != 20000 || got.Stats.Online {
		t.Errorf("got %+v after upsert", got)
	}
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "blogs.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	agg := blogdl.Aggregate{Name: "b", LastSeenID: 9}
	if err := db.SaveAggregate(ctx, agg); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	db, err = store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	got, ok, err := db.LoadAggregate(ctx, "b")
	if err != nil || !ok {
		t.Fatalf("load after reopen: ok=%v err=%v", ok, err)
	}
	if got.LastSeenID != 9 {
		t.Errorf("got %v, want 9", got.LastSeenID)
	}
}
