package runtime

import (
	"context"
	"sync"

	"github.com/aretw0/portico/pkg/domain"
)

// Transition is the handle of an accepted transition.
type Transition struct {
	req  domain.TransitionRequest
	done chan struct{}

	mu     sync.Mutex
	err    error
	portal *domain.Portal
	state  domain.TransitionState
}

func newTransition(req domain.TransitionRequest) *Transition {
	return &Transition{req: req, done: make(chan struct{}), state: domain.StateIdle}
}

// Request returns the accepted request.
func (t *Transition) Request() domain.TransitionRequest {
	return t.req
}

// Done is closed after the finish observers have run.
func (t *Transition) Done() <-chan struct{} {
	return t.done
}

// Err returns why the transition did not fully succeed, or nil.
func (t *Transition) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Portal returns the destination portal once it has been resolved.
func (t *Transition) Portal() *domain.Portal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.portal
}

// State returns the last phase the transition reached.
func (t *Transition) State() domain.TransitionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Wait blocks until the transition finishes or ctx is done.
func (t *Transition) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Transition) setState(s domain.TransitionState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

func (t *Transition) finish(p *domain.Portal, err error) {
	t.mu.Lock()
	t.portal = p
	t.err = err
	t.mu.Unlock()
}
