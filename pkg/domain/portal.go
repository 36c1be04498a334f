package domain

import (
	"fmt"
	"sync/atomic"
)

// Destination links a portal to a portal in another (or the same) partition.
// A zero Destination means the portal is unconnected.
type Destination struct {
	Partition PartitionKey `json:"partition,omitempty" yaml:"partition,omitempty"`
	ID        int          `json:"id,omitempty" yaml:"id,omitempty"`
}

// IsEmpty reports whether the destination is unconnected.
func (d Destination) IsEmpty() bool {
	return d.Partition.IsEmpty()
}

func (d Destination) String() string {
	if d.IsEmpty() {
		return "<none>"
	}
	return fmt.Sprintf("%s#%d", d.Partition, d.ID)
}

// ArrivalEvent is delivered to a portal's observers when an agent arrives through it.
type ArrivalEvent struct {
	Partition PartitionKey
	PortalID  int
	// From is the partition that was active before the transition, if any.
	From PartitionKey
}

// Portal is a live portal instance inside a loaded partition.
//
// ID is intended to be unique within its partition, but nothing enforces it:
// duplicate detection belongs to the validator.
type Portal struct {
	ID          int
	Partition   PartitionKey
	Destination Destination

	arrivals  Observers[ArrivalEvent]
	destroyed atomic.Bool
}

// NewPortal creates a live portal instance.
func NewPortal(partition PartitionKey, id int, dest Destination) *Portal {
	return &Portal{
		ID:          id,
		Partition:   partition,
		Destination: dest,
	}
}

// OnArrival registers an arrival observer. The returned function removes it.
func (p *Portal) OnArrival(fn func(ArrivalEvent)) (remove func()) {
	return p.arrivals.Add(fn)
}

// Arrive notifies every arrival observer, in registration order.
func (p *Portal) Arrive(from PartitionKey) {
	p.arrivals.Notify(ArrivalEvent{
		Partition: p.Partition,
		PortalID:  p.ID,
		From:      from,
	})
}

// Destroy marks the instance as torn down together with its partition.
func (p *Portal) Destroy() {
	p.destroyed.Store(true)
}

// Alive reports whether the instance still belongs to a loaded partition.
func (p *Portal) Alive() bool {
	return p != nil && !p.destroyed.Load()
}

// Spec returns the static definition of this instance.
func (p *Portal) Spec() PortalSpec {
	return PortalSpec{ID: p.ID, Destination: p.Destination}
}

// CacheStats counts portal lookup cache activity since creation.
type CacheStats struct {
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Rebuilds uint64 `json:"rebuilds"`
}
