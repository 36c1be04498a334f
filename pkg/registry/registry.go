package registry

import (
	"context"
	"sync"

	"github.com/aretw0/portico/pkg/domain"
)

// Registry is an in-memory, ordered set of partition keys.
// It plays the role of a curated "shipping" list: partitions a transition may
// target, enumerated in registration order.
type Registry struct {
	mu    sync.RWMutex
	keys  []domain.PartitionKey
	index map[domain.PartitionKey]struct{}
}

// NewRegistry creates a registry pre-populated with keys. Duplicates are ignored.
func NewRegistry(keys ...domain.PartitionKey) *Registry {
	r := &Registry{
		index: make(map[domain.PartitionKey]struct{}),
	}
	for _, k := range keys {
		r.Register(k)
	}
	return r
}

// Register appends key to the registry.
// Registering an existing or empty key is a no-op.
func (r *Registry) Register(key domain.PartitionKey) {
	if key.IsEmpty() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[key]; ok {
		return
	}
	r.index[key] = struct{}{}
	r.keys = append(r.keys, key)
}

// Unregister removes key, preserving the order of the remaining keys.
func (r *Registry) Unregister(key domain.PartitionKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[key]; !ok {
		return
	}
	delete(r.index, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Partitions returns the registered keys in registration order.
func (r *Registry) Partitions(ctx context.Context) ([]domain.PartitionKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PartitionKey, len(r.keys))
	copy(out, r.keys)
	return out, nil
}

// Contains reports whether key is registered.
func (r *Registry) Contains(ctx context.Context, key domain.PartitionKey) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[key]
	return ok, nil
}
