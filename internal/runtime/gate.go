package runtime

import (
	"context"
	"sync"
)

// Gate is an activation switch that can be flipped at any time, including
// before a transition starts. Waiters are released the moment it opens.
// The zero value is closed; NewGate returns an open gate.
type Gate struct {
	mu     sync.Mutex
	open   bool
	opened chan struct{}
}

// NewGate returns a gate in the given state.
func NewGate(open bool) *Gate {
	g := &Gate{opened: make(chan struct{})}
	g.Set(open)
	return g
}

// Set opens or closes the gate.
func (g *Gate) Set(open bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.opened == nil {
		g.opened = make(chan struct{})
	}
	if open == g.open {
		return
	}
	g.open = open
	if open {
		close(g.opened)
	} else {
		g.opened = make(chan struct{})
	}
}

// Open reports whether activation is currently allowed.
func (g *Gate) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Wait blocks until the gate is open or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	if g.opened == nil {
		g.opened = make(chan struct{})
	}
	ch := g.opened
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
