// Package scan adapts ticket readers (camera decode loops, keyboard-wedge
// barcode scanners, typed input) to a single-flight source of raw codes.
//
// A continuous decoder reports the same code many times per second while it
// stays in frame. The Gate holds at most one candidate: once Next hands a
// candidate out, every further offer is dropped until the caller has finished
// with it and calls Resume.
package scan

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("scan source closed")

// Source yields raw candidate strings one at a time.
type Source interface {
	// Next blocks until a candidate is available, the source is closed, or ctx ends.
	Next(ctx context.Context) (string, error)
	// Resume re-arms the source after the caller has handled the last candidate.
	Resume()
}

// Gate is a Source fed by a producer callback.
type Gate struct {
	mu      sync.Mutex
	ready   chan string
	done    chan struct{}
	paused  bool
	pending bool
	closed  bool
	dropped int
}

func NewGate() *Gate {
	return &Gate{
		ready: make(chan string, 1),
		done:  make(chan struct{}),
	}
}

// Offer is called by the producer for every decoded string. It reports
// whether the candidate was accepted.
func (g *Gate) Offer(raw string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.paused || g.pending {
		g.dropped++
		return false
	}
	g.pending = true
	g.ready <- raw
	return true
}

func (g *Gate) Next(ctx context.Context) (string, error) {
	// a candidate accepted before Close is still delivered
	select {
	case raw := <-g.ready:
		return g.take(raw), nil
	default:
	}
	select {
	case raw := <-g.ready:
		return g.take(raw), nil
	case <-g.done:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *Gate) take(raw string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = false
	g.paused = true
	return raw
}

func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = false
}

// Paused reports whether the gate is waiting for Resume.
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Dropped is the number of offers rejected so far.
func (g *Gate) Dropped() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dropped
}

// Close stops the gate; blocked and later Next calls return ErrClosed.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	close(g.done)
}
