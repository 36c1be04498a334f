package domain

import (
	"path"
	"strings"
)

// PartitionKey identifies a partition. Keys are path-like ("levels/forest")
// and stable across loads.
type PartitionKey string

// NormalizeKey converts a raw document or file path into a PartitionKey.
// Backslashes become slashes and a trailing extension is dropped.
func NormalizeKey(raw string) PartitionKey {
	s := strings.ReplaceAll(strings.TrimSpace(raw), "\\", "/")
	if ext := path.Ext(s); ext != "" {
		s = strings.TrimSuffix(s, ext)
	}
	return PartitionKey(strings.TrimPrefix(s, "./"))
}

// IsEmpty reports whether the key names no partition.
func (k PartitionKey) IsEmpty() bool {
	return k == ""
}

func (k PartitionKey) String() string {
	return string(k)
}

// PortalSpec is the static definition of a portal inside a PartitionSpec.
type PortalSpec struct {
	ID          int         `json:"id" yaml:"id"`
	Destination Destination `json:"destination" yaml:"destination"`
}

// PartitionSpec is the definition a partition is instantiated from when it is
// loaded or opened. Portal order is preserved.
type PartitionSpec struct {
	Key         PartitionKey `json:"key" yaml:"key"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Portals     []PortalSpec `json:"portals" yaml:"portals"`
}

// Instantiate creates fresh portal instances for this partition.
// Every call returns new values; instances from a previous load are never reused.
func (s PartitionSpec) Instantiate() []*Portal {
	portals := make([]*Portal, 0, len(s.Portals))
	for _, ps := range s.Portals {
		portals = append(portals, NewPortal(s.Key, ps.ID, ps.Destination))
	}
	return portals
}
