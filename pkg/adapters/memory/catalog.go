package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/portico/pkg/domain"
)

// Catalog implements ports.PartitionStore in memory.
// Partitions are enumerated in insertion order. Safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	order []domain.PartitionKey
	specs map[domain.PartitionKey]domain.PartitionSpec
}

// NewCatalog creates a catalog holding the given definitions.
func NewCatalog(specs ...domain.PartitionSpec) *Catalog {
	c := &Catalog{
		specs: make(map[domain.PartitionKey]domain.PartitionSpec),
	}
	for _, s := range specs {
		c.Put(s)
	}
	return c
}

// Put adds or replaces a partition definition. Replacing keeps the original position.
func (c *Catalog) Put(spec domain.PartitionSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.specs[spec.Key]; !exists {
		c.order = append(c.order, spec.Key)
	}
	c.specs[spec.Key] = copySpec(spec)
}

// Remove deletes a partition definition.
func (c *Catalog) Remove(key domain.PartitionKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.specs[key]; !exists {
		return
	}
	delete(c.specs, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Partitions returns all keys in insertion order.
func (c *Catalog) Partitions(ctx context.Context) ([]domain.PartitionKey, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.PartitionKey, len(c.order))
	copy(out, c.order)
	return out, nil
}

// Contains reports whether key has a definition.
func (c *Catalog) Contains(ctx context.Context, key domain.PartitionKey) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.specs[key]
	return ok, nil
}

// GetPartition returns a copy of the definition of key.
func (c *Catalog) GetPartition(ctx context.Context, key domain.PartitionKey) (domain.PartitionSpec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	spec, ok := c.specs[key]
	if !ok {
		return domain.PartitionSpec{}, fmt.Errorf("%w: %s", domain.ErrPartitionNotFound, key)
	}
	return copySpec(spec), nil
}

// copySpec isolates callers from the catalog's internal slices.
func copySpec(s domain.PartitionSpec) domain.PartitionSpec {
	out := s
	out.Portals = make([]domain.PortalSpec, len(s.Portals))
	copy(out.Portals, s.Portals)
	return out
}
