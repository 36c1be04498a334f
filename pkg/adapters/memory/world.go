package memory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/portico/internal/logging"
	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports"
)

// World implements ports.World in memory, instantiating partitions from a
// ports.PartitionStore. Several partitions may be loaded at once; at most one
// is active. Safe for concurrent use.
type World struct {
	store  ports.PartitionStore
	logger *slog.Logger
	delay  time.Duration
	spawn  func(*domain.Portal)

	mu     sync.Mutex
	loaded map[domain.PartitionKey][]*domain.Portal
	order  []domain.PartitionKey
	active domain.PartitionKey

	// openToken has capacity one: holding it means a partition is open for inspection.
	openToken chan struct{}
}

// WorldOption configures a World.
type WorldOption func(*World)

// WithLoadDelay simulates I/O latency for each load/unload phase.
func WithLoadDelay(d time.Duration) WorldOption {
	return func(w *World) {
		w.delay = d
	}
}

// WithSpawnHook registers fn to run for every portal instantiated by a load,
// before the load completes. It is the place to attach arrival observers.
func WithSpawnHook(fn func(*domain.Portal)) WorldOption {
	return func(w *World) {
		w.spawn = fn
	}
}

// WithLogger configures a logger for the World.
func WithLogger(logger *slog.Logger) WorldOption {
	return func(w *World) {
		w.logger = logger
	}
}

// NewWorld creates an empty world backed by store.
func NewWorld(store ports.PartitionStore, opts ...WorldOption) *World {
	w := &World{
		store:     store,
		logger:    logging.NewNop(),
		loaded:    make(map[domain.PartitionKey][]*domain.Portal),
		openToken: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var (
	_ ports.World        = (*World)(nil)
	_ ports.PortalSource = (*World)(nil)
)

// LoadAsync starts loading key. The operation holds at ports.ReadyThreshold
// until Activate is called. Loading an already loaded partition replaces its instances.
func (w *World) LoadAsync(ctx context.Context, key domain.PartitionKey) (ports.LoadOperation, error) {
	if key.IsEmpty() {
		return nil, domain.ErrEmptyDestination
	}
	op := newLoadOperation()

	go func() {
		spec, err := w.store.GetPartition(ctx, key)
		if err != nil {
			op.fail(fmt.Errorf("%w: %s: %v", domain.ErrPartitionLoad, key, err))
			return
		}
		op.setProgress(0.5)

		if err := w.sleep(ctx); err != nil {
			op.fail(err)
			return
		}
		op.setProgress(ports.ReadyThreshold)
		w.logger.Debug("partition ready to activate", "partition", key)

		select {
		case <-op.activate:
		case <-ctx.Done():
			op.fail(ctx.Err())
			return
		}

		portals := spec.Instantiate()
		if w.spawn != nil {
			for _, p := range portals {
				w.spawn(p)
			}
		}
		w.mu.Lock()
		if old, ok := w.loaded[key]; ok {
			destroyAll(old)
		} else {
			w.order = append(w.order, key)
		}
		w.loaded[key] = portals
		w.mu.Unlock()

		op.setProgress(1)
		w.logger.Debug("partition loaded", "partition", key, "portals", len(portals))
		op.finish(nil)
	}()

	return op, nil
}

// UnloadAsync starts unloading key. Its portals are destroyed on completion.
func (w *World) UnloadAsync(ctx context.Context, key domain.PartitionKey) (ports.Operation, error) {
	w.mu.Lock()
	_, ok := w.loaded[key]
	w.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPartitionNotLoaded, key)
	}

	op := newOperation()
	go func() {
		if err := w.sleep(ctx); err != nil {
			op.finish(err)
			return
		}

		w.mu.Lock()
		destroyAll(w.loaded[key])
		delete(w.loaded, key)
		w.order = slices.DeleteFunc(w.order, func(k domain.PartitionKey) bool { return k == key })
		if w.active == key {
			w.active = ""
		}
		w.mu.Unlock()

		w.logger.Debug("partition unloaded", "partition", key)
		op.finish(nil)
	}()
	return op, nil
}

// Load synchronously loads key and, if no partition is active yet, activates it.
func (w *World) Load(ctx context.Context, key domain.PartitionKey) error {
	op, err := w.LoadAsync(ctx, key)
	if err != nil {
		return err
	}
	op.Activate()

	select {
	case <-op.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := op.Err(); err != nil {
		return err
	}

	if w.ActivePartition().IsEmpty() {
		return w.SetActive(key)
	}
	return nil
}

// Loaded returns loaded keys in load order.
func (w *World) Loaded() []domain.PartitionKey {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.order)
}

// ActivePartition returns the active partition, or an empty key.
func (w *World) ActivePartition() domain.PartitionKey {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// SetActive marks a loaded partition as active.
func (w *World) SetActive(key domain.PartitionKey) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.loaded[key]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrPartitionNotLoaded, key)
	}
	w.active = key
	return nil
}

// Portals returns the live portals of a loaded partition.
func (w *World) Portals(key domain.PartitionKey) ([]*domain.Portal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	portals, ok := w.loaded[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPartitionNotLoaded, key)
	}
	return slices.Clone(portals), nil
}

// AddPortal instantiates a new portal inside a loaded partition.
func (w *World) AddPortal(key domain.PartitionKey, id int, dest domain.Destination) (*domain.Portal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	portals, ok := w.loaded[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPartitionNotLoaded, key)
	}
	p := domain.NewPortal(key, id, dest)
	w.loaded[key] = append(portals, p)
	return p, nil
}

// RemovePortal destroys a live portal and removes it from its partition.
func (w *World) RemovePortal(p *domain.Portal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p.Destroy()
	portals := w.loaded[p.Partition]
	w.loaded[p.Partition] = slices.DeleteFunc(portals, func(q *domain.Portal) bool { return q == p })
}

// Open grants exclusive access to a freshly instantiated copy of key.
// It blocks while another handle is open.
func (w *World) Open(ctx context.Context, key domain.PartitionKey) (ports.PartitionHandle, error) {
	select {
	case w.openToken <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	spec, err := w.store.GetPartition(ctx, key)
	if err != nil {
		<-w.openToken
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPartitionOpen, key, err)
	}

	return &handle{
		key:     key,
		portals: spec.Instantiate(),
		release: func() { <-w.openToken },
	}, nil
}

func (w *World) sleep(ctx context.Context) error {
	if w.delay <= 0 {
		return nil
	}
	t := time.NewTimer(w.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func destroyAll(portals []*domain.Portal) {
	for _, p := range portals {
		p.Destroy()
	}
}

type handle struct {
	key     domain.PartitionKey
	portals []*domain.Portal
	release func()
	once    sync.Once
	closed  atomic.Bool
}

func (h *handle) Key() domain.PartitionKey {
	return h.key
}

func (h *handle) Portals() ([]*domain.Portal, error) {
	if h.closed.Load() {
		return nil, fmt.Errorf("partition %s: handle closed", h.key)
	}
	return slices.Clone(h.portals), nil
}

func (h *handle) Close() error {
	h.once.Do(func() {
		h.closed.Store(true)
		destroyAll(h.portals)
		h.release()
	})
	return nil
}
