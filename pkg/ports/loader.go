package ports

import (
	"context"

	"github.com/aretw0/portico/pkg/domain"
)

// ReadyThreshold is the load progress at which a partition is fully loaded
// but not yet switched in.
const ReadyThreshold = 0.9

// Operation is an in-flight asynchronous partition operation.
type Operation interface {
	// Done is closed when the operation completes, successfully or not.
	Done() <-chan struct{}
	// Err returns the failure cause once Done is closed.
	Err() error
}

// LoadOperation is an asynchronous partition load with a two-phase completion:
// it first reaches ReadyThreshold, then waits for Activate before switching in.
type LoadOperation interface {
	Operation
	// Progress returns a value in [0, 1].
	Progress() float64
	// Ready is closed once Progress reaches ReadyThreshold (or the load fails).
	Ready() <-chan struct{}
	// Activate allows the load to finish and switch the partition in.
	Activate()
}

// PartitionLoader loads and unloads partitions and tracks which one is active.
type PartitionLoader interface {
	// LoadAsync starts loading key. The returned operation holds at
	// ReadyThreshold until Activate is called.
	LoadAsync(ctx context.Context, key domain.PartitionKey) (LoadOperation, error)

	// UnloadAsync starts unloading key.
	UnloadAsync(ctx context.Context, key domain.PartitionKey) (Operation, error)

	// Loaded returns the keys of every partition currently in memory.
	Loaded() []domain.PartitionKey

	// ActivePartition returns the active partition, or an empty key.
	ActivePartition() domain.PartitionKey

	// SetActive marks a loaded partition as the active one.
	SetActive(key domain.PartitionKey) error
}

// PortalSource exposes the live portal sets of loaded partitions.
type PortalSource interface {
	ActivePartition() domain.PartitionKey

	// Portals returns the live portals of a loaded partition in enumeration order.
	// Returns domain.ErrPartitionNotLoaded if the partition is not in memory.
	Portals(key domain.PartitionKey) ([]*domain.Portal, error)
}

// PartitionHandle is exclusive access to one partition's portal set.
// It MUST be closed before another partition can be opened.
type PartitionHandle interface {
	Key() domain.PartitionKey
	Portals() ([]*domain.Portal, error)
	Close() error
}

// PartitionOpener opens partitions one at a time for offline inspection.
type PartitionOpener interface {
	// Open blocks until no other handle is open, or ctx is done.
	Open(ctx context.Context, key domain.PartitionKey) (PartitionHandle, error)
}

// World is the full set of capabilities the core needs from a world implementation.
type World interface {
	PartitionLoader
	PortalSource
	PartitionOpener
}

// Watchable defines an interface for sources that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that receives the key of each changed partition.
	Watch(ctx context.Context) (<-chan string, error)
}

// PortalLookup is the read side of the portal cache.
type PortalLookup interface {
	// Get returns the live portal with id in the active partition.
	Get(id int) (*domain.Portal, bool)
	// Partition returns the partition the lookup was last built from.
	Partition() domain.PartitionKey
	// Stats returns a snapshot of the lookup counters.
	Stats() domain.CacheStats
}
