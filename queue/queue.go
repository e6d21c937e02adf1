// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package queue provides the bounded handoff between the crawler and the
// downloader: a multi-producer FIFO with a terminal 'no more items'
// signal and a blocking drain iteration.
package queue

import (
	"context"
	"iter"
	"sync"

	"cloudeng.io/errors"
)

// ErrCompleted is returned by Add once CompleteAdding has been called.
var ErrCompleted = errors.New("adding completed")

// Q is a bounded multi-producer queue. Producers call Add until done and
// then exactly one logical CompleteAdding; the consumer iterates Drain
// until the queue is both empty and completed. A Q is used for a single
// crawl run and not reused.
type Q[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

// New creates a queue with the given capacity. A capacity of zero or less
// defaults to 1 so that Add can always interleave with a slow consumer.
func New[T any](capacity int) *Q[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Q[T]{
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// Add enqueues v, blocking while the queue is full. It returns
// ErrCompleted if CompleteAdding has been called, or the context's error
// on cancellation.
func (q *Q[T]) Add(ctx context.Context, v T) error {
	select {
	case <-q.done:
		return ErrCompleted
	default:
	}
	select {
	case q.ch <- v:
		return nil
	case <-q.done:
		return ErrCompleted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CompleteAdding marks the queue terminal: no further items will be
// accepted and Drain finishes once the buffered items are consumed.
// Idempotent.
func (q *Q[T]) CompleteAdding() {
	q.once.Do(func() { close(q.done) })
}

// Completed reports whether CompleteAdding has been called.
func (q *Q[T]) Completed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Len returns the number of buffered items.
func (q *Q[T]) Len() int {
	return len(q.ch)
}

// Drain returns an iterator that yields items until the queue is
// completed and empty, or the context is cancelled. It is intended for a
// single consuming loop which may dispatch each item to its own worker.
func (q *Q[T]) Drain(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			select {
			case v := <-q.ch:
				if !yield(v) {
					return
				}
			case <-ctx.Done():
				return
			case <-q.done:
				// Adding is complete: consume whatever is left and stop.
				for {
					select {
					case v := <-q.ch:
						if !yield(v) {
							return
						}
					case <-ctx.Done():
						return
					default:
						return
					}
				}
			}
		}
	}
}
