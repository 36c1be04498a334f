package memory

import (
	"sync"

	"github.com/aretw0/portico/pkg/ports"
)

// operation is a completion-only asynchronous operation.
type operation struct {
	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	err error
}

func newOperation() *operation {
	return &operation{done: make(chan struct{})}
}

func (o *operation) Done() <-chan struct{} {
	return o.done
}

func (o *operation) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

func (o *operation) finish(err error) {
	o.once.Do(func() {
		o.mu.Lock()
		o.err = err
		o.mu.Unlock()
		close(o.done)
	})
}

// loadOperation adds progress, the ready threshold and the activation switch.
type loadOperation struct {
	*operation

	ready     chan struct{}
	readyOnce sync.Once

	activate     chan struct{}
	activateOnce sync.Once

	progressMu sync.Mutex
	progress   float64
}

func newLoadOperation() *loadOperation {
	return &loadOperation{
		operation: newOperation(),
		ready:     make(chan struct{}),
		activate:  make(chan struct{}),
	}
}

func (o *loadOperation) Progress() float64 {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	return o.progress
}

func (o *loadOperation) Ready() <-chan struct{} {
	return o.ready
}

func (o *loadOperation) Activate() {
	o.activateOnce.Do(func() { close(o.activate) })
}

func (o *loadOperation) setProgress(p float64) {
	o.progressMu.Lock()
	o.progress = p
	o.progressMu.Unlock()
	if p >= ports.ReadyThreshold {
		o.markReady()
	}
}

func (o *loadOperation) markReady() {
	o.readyOnce.Do(func() { close(o.ready) })
}

// fail completes the load with err, releasing anyone waiting on Ready.
func (o *loadOperation) fail(err error) {
	o.markReady()
	o.finish(err)
}
