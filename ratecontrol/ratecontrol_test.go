// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ratecontrol

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu    sync.Mutex
	now   time.Time
	waits int
}

func (tc *testClock) Now() time.Time {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.now
}

func (tc *testClock) After(time.Duration) <-chan time.Time {
	tc.mu.Lock()
	// Every wait advances the fake clock far enough to open the next
	// interval, so tests never sleep.
	tc.now = tc.now.Add(time.Hour)
	tc.waits++
	ch := make(chan time.Time, 1)
	ch <- tc.now
	tc.mu.Unlock()
	return ch
}

func (tc *testClock) waited() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.waits
}

func TestNoLimitsAdmitImmediately(t *testing.T) {
	ctx := context.Background()
	c := New()
	defer c.Stop()
	for i := 0; i < 100; i++ {
		if err := c.Wait(ctx); err != nil {
			t.Fatal(err)
		}
		if err := c.WaitBytes(ctx); err != nil {
			t.Fatal(err)
		}
	}
	c.BytesTransferred(1 << 30) // ignored without a budget
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(WithRequestsPerInterval(1), WithInterval(time.Hour))
	defer c.Stop()
	if err := c.Wait(ctx); err != context.Canceled {
		t.Errorf("got %v, want %v", err, context.Canceled)
	}
}

func TestBytesBudget(t *testing.T) {
	ctx := context.Background()
	tc := &testClock{now: time.Now()}
	c := New(WithBytesPerInterval(10), WithInterval(time.Minute), WithClock(tc))
	defer c.Stop()

	if err := c.WaitBytes(ctx); err != nil {
		t.Fatal(err)
	}
	c.BytesTransferred(20) // exceed the budget within the interval
	if err := c.WaitBytes(ctx); err != nil {
		t.Fatal(err)
	}
	if got := tc.waited(); got == 0 {
		t.Errorf("expected at least one wait after exceeding the budget")
	}
}

func TestThrottledReader(t *testing.T) {
	ctx := context.Background()
	tc := &testClock{now: time.Now()}
	c := New(WithBytesPerInterval(4), WithInterval(time.Minute), WithClock(tc))
	defer c.Stop()

	payload := bytes.Repeat([]byte{'x'}, 64)
	rd := NewThrottledReader(ctx, bytes.NewReader(payload), c)
	buf, err := io.ReadAll(rd)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(buf), len(payload); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestThrottledReaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := New(WithBytesPerInterval(1), WithInterval(time.Hour))
	defer c.Stop()
	c.BytesTransferred(100)
	cancel()
	rd := NewThrottledReader(ctx, bytes.NewReader([]byte("abc")), c)
	if _, err := rd.Read(make([]byte, 1)); err != context.Canceled {
		t.Errorf("got %v, want %v", err, context.Canceled)
	}
}

func TestExponentialBackoff(t *testing.T) {
	ctx := context.Background()
	eb := NewExponentialBackoff(time.Microsecond, 3)
	steps := 0
	for {
		done, err := eb.Wait(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if done {
			break
		}
		steps++
	}
	if got, want := steps, 3; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := eb.Retries(), 3; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBackoffDisabled(t *testing.T) {
	c := New()
	defer c.Stop()
	done, err := c.Backoff().Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Errorf("no-op backoff should report done immediately")
	}
}
