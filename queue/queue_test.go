// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package queue_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/mirrorkeep/blogdl/queue"
)

func TestAddDrain(t *testing.T) {
	ctx := context.Background()
	q := queue.New[int](4)
	for i := 0; i < 4; i++ {
		if err := q.Add(ctx, i); err != nil {
			t.Fatal(err)
		}
	}
	q.CompleteAdding()
	var got []int
	for v := range q.Drain(ctx) {
		got = append(got, v)
	}
	if got, want := len(got), 4; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	for i, v := range got {
		if v != i {
			t.Errorf("position %v: got %v, want %v", i, v, i)
		}
	}
}

func TestAddAfterComplete(t *testing.T) {
	ctx := context.Background()
	q := queue.New[int](1)
	q.CompleteAdding()
	q.CompleteAdding() // idempotent
	if err := q.Add(ctx, 1); !errors.Is(err, queue.ErrCompleted) {
		t.Errorf("got %v, want %v", err, queue.ErrCompleted)
	}
	if !q.Completed() {
		t.Errorf("queue should be completed")
	}
}

func TestConcurrentProducers(t *testing.T) {
	ctx := context.Background()
	q := queue.New[int](2)
	const producers, perProducer = 5, 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.Add(ctx, p*perProducer+i); err != nil {
					t.Errorf("add: %v", err)
					return
				}
			}
		}(p)
	}
	go func() {
		wg.Wait()
		q.CompleteAdding()
	}()

	var got []int
	for v := range q.Drain(ctx) {
		got = append(got, v)
	}
	if got, want := len(got), producers*perProducer; got != want {
		t.Fatalf("got %v items, want %v", got, want)
	}
	sort.Ints(got)
	for i, v := range got {
		if v != i {
			t.Fatalf("missing or duplicated item: got %v at %v", v, i)
		}
	}
}

func TestDrainCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := queue.New[int](1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range q.Drain(ctx) {
		}
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain did not observe cancellation")
	}
}

func TestAddBlocksUntilConsumed(t *testing.T) {
	ctx := context.Background()
	q := queue.New[int](1)
	if err := q.Add(ctx, 0); err != nil {
		t.Fatal(err)
	}
	added := make(chan struct{})
	go func() {
		defer close(added)
		if err := q.Add(ctx, 1); err != nil {
			t.Errorf("add: %v", err)
		}
	}()
	select {
	case <-added:
		t.Fatal("add should have blocked on a full queue")
	case <-time.After(10 * time.Millisecond):
	}
	// Consuming one item frees capacity and unblocks the producer.
	for range q.Drain(ctx) {
		break
	}
	<-added
	q.CompleteAdding()
	var got []int
	for v := range q.Drain(ctx) {
		got = append(got, v)
	}
	if got, want := len(got), 1; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
