// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package blogdl

import (
	"context"
	"sync"
)

// Gate is a cooperative pause point shared by crawl and download workers.
// Workers call Wait before each unit of work; while paused they block
// until Resume is called or their context is cancelled. Pausing does not
// release resources the workers already hold.
type Gate struct {
	mu sync.Mutex
	// ch is closed while the gate is open; a fresh unclosed channel is
	// swapped in on Pause.
	ch chan struct{}
}

// NewGate returns an open (running) gate.
func NewGate() *Gate {
	ch := make(chan struct{})
	close(ch)
	return &Gate{ch: ch}
}

// Pause closes the gate. Idempotent.
func (g *Gate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
		g.ch = make(chan struct{})
	default:
	}
}

// Resume reopens the gate, releasing all blocked waiters. Idempotent.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
	default:
		close(g.ch)
	}
}

// Paused reports whether the gate is currently closed.
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
		return false
	default:
		return true
	}
}

// Wait blocks while the gate is paused. It returns the context's error
// if the context is cancelled first.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
