package loam

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/portico/pkg/domain"
)

// PartitionMetadata represents the frontmatter of a partition document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type PartitionMetadata struct {
	ID          string           `json:"id" mapstructure:"id"`
	Description string           `json:"description" mapstructure:"description"`
	Portals     []PortalMetadata `json:"portals" mapstructure:"portals"`
}

// PortalMetadata is one portal entry. Ids are decoded loosely because
// frontmatter numbers arrive as int, float64 or json.Number depending on the
// document format.
type PortalMetadata struct {
	ID          any                  `json:"id" mapstructure:"id"`
	Destination *DestinationMetadata `json:"destination" mapstructure:"destination"`
	// To is shorthand for destination: "forest#1".
	To string `json:"to" mapstructure:"to"`
}

// DestinationMetadata is the explicit destination form.
type DestinationMetadata struct {
	Partition string `json:"partition" mapstructure:"partition"`
	ID        any    `json:"id" mapstructure:"id"`
}

func (m PartitionMetadata) toSpec(key domain.PartitionKey) (domain.PartitionSpec, error) {
	spec := domain.PartitionSpec{
		Key:         key,
		Description: m.Description,
		Portals:     make([]domain.PortalSpec, 0, len(m.Portals)),
	}
	for i, pm := range m.Portals {
		if pm.ID == nil {
			return domain.PartitionSpec{}, fmt.Errorf("portals[%d].id: missing", i)
		}
		id, err := toInt(pm.ID)
		if err != nil {
			return domain.PartitionSpec{}, fmt.Errorf("portals[%d].id: %w", i, err)
		}
		dest, err := pm.destination()
		if err != nil {
			return domain.PartitionSpec{}, fmt.Errorf("portals[%d]: %w", i, err)
		}
		spec.Portals = append(spec.Portals, domain.PortalSpec{ID: id, Destination: dest})
	}
	return spec, nil
}

func (pm PortalMetadata) destination() (domain.Destination, error) {
	if pm.Destination != nil && pm.Destination.Partition != "" {
		id, err := toInt(pm.Destination.ID)
		if err != nil {
			return domain.Destination{}, fmt.Errorf("destination.id: %w", err)
		}
		return domain.Destination{Partition: domain.NormalizeKey(pm.Destination.Partition), ID: id}, nil
	}
	if pm.To != "" {
		return ParseDestination(pm.To)
	}
	return domain.Destination{}, nil
}

// ParseDestination parses the "partition#id" shorthand. A missing id means 0.
func ParseDestination(s string) (domain.Destination, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Destination{}, nil
	}
	partition, rawID, found := strings.Cut(s, "#")
	dest := domain.Destination{Partition: domain.NormalizeKey(partition)}
	if !found {
		return dest, nil
	}
	id, err := strconv.Atoi(strings.TrimSpace(rawID))
	if err != nil {
		return domain.Destination{}, fmt.Errorf("invalid destination %q: %w", s, err)
	}
	dest.ID = id
	return dest, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}
