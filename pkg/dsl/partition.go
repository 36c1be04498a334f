package dsl

import "github.com/aretw0/portico/pkg/domain"

// PartitionBuilder provides a fluent API for configuring a partition.
type PartitionBuilder struct {
	spec    domain.PartitionSpec
	builder *Builder
	// last is the index of the portal To applies to.
	last int
}

// Describe sets the human readable description of the partition.
func (p *PartitionBuilder) Describe(text string) *PartitionBuilder {
	p.spec.Description = text
	return p
}

// Portal selects portal id, appending an unconnected one if it is not declared yet.
func (p *PartitionBuilder) Portal(id int) *PartitionBuilder {
	for i, ps := range p.spec.Portals {
		if ps.ID == id {
			p.last = i
			return p
		}
	}
	return p.NewPortal(id)
}

// NewPortal always appends a portal, even if id is already taken.
func (p *PartitionBuilder) NewPortal(id int) *PartitionBuilder {
	p.spec.Portals = append(p.spec.Portals, domain.PortalSpec{ID: id})
	p.last = len(p.spec.Portals) - 1
	return p
}

// To connects the selected portal to portal id of partition.
func (p *PartitionBuilder) To(partition string, id int) *PartitionBuilder {
	if len(p.spec.Portals) == 0 {
		p.Portal(1)
	}
	p.spec.Portals[p.last].Destination = domain.Destination{
		Partition: domain.NormalizeKey(partition),
		ID:        id,
	}
	return p
}

// Add switches to another partition of the same world.
func (p *PartitionBuilder) Add(key string) *PartitionBuilder {
	return p.builder.Add(key)
}

// Build returns a copy of the underlying domain.PartitionSpec.
// This is primarily used by the Builder, but exposed for advanced usage.
func (p *PartitionBuilder) Build() domain.PartitionSpec {
	spec := p.spec
	spec.Portals = append([]domain.PortalSpec(nil), p.spec.Portals...)
	return spec
}
