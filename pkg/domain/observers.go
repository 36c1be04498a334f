package domain

import (
	"sync"
	"sync/atomic"
)

type observer[E any] struct {
	fn      func(E)
	removed atomic.Bool
}

// Observers is an ordered fan-out list of callbacks.
//
// Notify invokes observers synchronously in registration order. Removing an
// observer (including from inside a callback) is safe: once the remove function
// returns, that observer is never called again. Observers added during a
// Notify are first called on the next Notify.
//
// The zero value is ready to use.
type Observers[E any] struct {
	mu    sync.Mutex
	items []*observer[E]
}

// Add registers fn and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (o *Observers[E]) Add(fn func(E)) (remove func()) {
	if fn == nil {
		return func() {}
	}
	ob := &observer[E]{fn: fn}

	o.mu.Lock()
	o.items = append(o.items, ob)
	o.mu.Unlock()

	return func() {
		if ob.removed.Swap(true) {
			return
		}
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, it := range o.items {
			if it == ob {
				o.items = append(o.items[:i:i], o.items[i+1:]...)
				return
			}
		}
	}
}

// Notify calls every registered observer with e.
func (o *Observers[E]) Notify(e E) {
	o.mu.Lock()
	snapshot := make([]*observer[E], len(o.items))
	copy(snapshot, o.items)
	o.mu.Unlock()

	for _, ob := range snapshot {
		if ob.removed.Load() {
			continue
		}
		ob.fn(e)
	}
}

// Len returns the number of registered observers.
func (o *Observers[E]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}
