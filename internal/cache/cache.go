// Package cache provides id-keyed portal lookup over the active partition.
package cache

import (
	"log/slog"
	"sync"

	"github.com/aretw0/portico/internal/logging"
	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports"
)

// Stats counts cache activity since creation.
type Stats = domain.CacheStats

var _ ports.PortalLookup = (*PortalCache)(nil)

// PortalCache maps portal ids to live portals of the active partition.
//
// Entries are never invalidated eagerly. A hit is trusted only if the cached
// portal is still alive and still carries the requested id; anything else
// triggers a wholesale rebuild and one retry.
type PortalCache struct {
	source ports.PortalSource
	logger *slog.Logger

	mu        sync.Mutex
	entries   map[int]*domain.Portal
	partition domain.PartitionKey
	stats     Stats
}

// Option configures a PortalCache.
type Option func(*PortalCache)

// WithLogger configures a logger for the cache.
func WithLogger(logger *slog.Logger) Option {
	return func(c *PortalCache) {
		c.logger = logger
	}
}

// NewPortalCache creates an empty cache over source. Nothing is built until the first lookup.
func NewPortalCache(source ports.PortalSource, opts ...Option) *PortalCache {
	c := &PortalCache{
		source:  source,
		logger:  logging.NewNop(),
		entries: make(map[int]*domain.Portal),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live portal with the given id in the active partition.
func (c *PortalCache) Get(id int) (*domain.Portal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.lookup(id); ok {
		c.stats.Hits++
		return p, true
	}

	c.rebuild()
	if p, ok := c.lookup(id); ok {
		c.stats.Hits++
		return p, true
	}

	c.stats.Misses++
	return nil, false
}

// Rebuild discards every entry and repopulates from the active partition.
func (c *PortalCache) Rebuild() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuild()
}

// Partition returns the partition the cache was last built from.
func (c *PortalCache) Partition() domain.PartitionKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.partition
}

// Stats returns a snapshot of the counters.
func (c *PortalCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *PortalCache) lookup(id int) (*domain.Portal, bool) {
	p, ok := c.entries[id]
	if !ok || !p.Alive() || p.ID != id {
		return nil, false
	}
	return p, true
}

func (c *PortalCache) rebuild() {
	c.stats.Rebuilds++
	clear(c.entries)

	active := c.source.ActivePartition()
	c.partition = active
	if active.IsEmpty() {
		return
	}

	portals, err := c.source.Portals(active)
	if err != nil {
		c.logger.Warn("portal cache rebuild failed", "partition", active, "err", err)
		return
	}

	for _, p := range portals {
		if !p.Alive() {
			continue
		}
		// First occurrence wins.
		if _, exists := c.entries[p.ID]; !exists {
			c.entries[p.ID] = p
		}
	}
	c.logger.Debug("portal cache rebuilt", "partition", active, "entries", len(c.entries))
}
