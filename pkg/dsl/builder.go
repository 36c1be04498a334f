package dsl

import (
	"fmt"

	"github.com/aretw0/portico/pkg/adapters/memory"
	"github.com/aretw0/portico/pkg/domain"
)

// Builder manages the world construction.
type Builder struct {
	order      []domain.PartitionKey
	partitions map[domain.PartitionKey]*PartitionBuilder
}

// New creates a new world builder.
func New() *Builder {
	return &Builder{
		partitions: make(map[domain.PartitionKey]*PartitionBuilder),
	}
}

// Add creates a new partition in the world.
// If the partition already exists, it returns the existing builder.
func (b *Builder) Add(key string) *PartitionBuilder {
	k := domain.NormalizeKey(key)
	if pb, ok := b.partitions[k]; ok {
		return pb
	}
	pb := &PartitionBuilder{
		spec:    domain.PartitionSpec{Key: k},
		builder: b,
	}
	b.partitions[k] = pb
	b.order = append(b.order, k)
	return pb
}

// Connect links portal aID of partition a and portal bID of partition b in
// both directions, creating partitions and portals as needed.
func (b *Builder) Connect(a string, aID int, c string, cID int) *Builder {
	b.Add(a).Portal(aID).To(c, cID)
	b.Add(c).Portal(cID).To(a, aID)
	return b
}

// Specs returns the partition definitions in the order they were added.
func (b *Builder) Specs() []domain.PartitionSpec {
	specs := make([]domain.PartitionSpec, 0, len(b.order))
	for _, k := range b.order {
		specs = append(specs, b.partitions[k].Build())
	}
	return specs
}

// Build compiles the world into a memory Catalog.
func (b *Builder) Build() (*memory.Catalog, error) {
	specs := b.Specs()
	for _, s := range specs {
		if s.Key.IsEmpty() {
			return nil, fmt.Errorf("failed to build catalog: %w", domain.ErrEmptyDestination)
		}
	}
	return memory.NewCatalog(specs...), nil
}
