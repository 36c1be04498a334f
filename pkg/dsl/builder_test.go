package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/portico/pkg/domain"
)

func TestBuilder_SimpleWorld(t *testing.T) {
	// 1. Build the world using DSL
	b := New()

	b.Add("hub").
		Describe("Central hub").
		Portal(1).To("forest", 1).
		Portal(2).To("cave", 1)

	b.Add("forest").
		Portal(1).To("hub", 1)

	b.Add("cave").
		Portal(1).To("hub", 2)

	// 2. Compile to Catalog
	catalog, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// 3. Verify order and contents
	keys, err := catalog.Partitions(context.Background())
	if err != nil {
		t.Fatalf("Partitions() failed: %v", err)
	}
	want := []domain.PartitionKey{"hub", "forest", "cave"}
	if len(keys) != len(want) {
		t.Fatalf("Expected %d partitions, got %d", len(want), len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Expected partition %d to be %q, got %q", i, want[i], keys[i])
		}
	}

	hub, err := catalog.GetPartition(context.Background(), "hub")
	if err != nil {
		t.Fatalf("GetPartition('hub') failed: %v", err)
	}
	if hub.Description != "Central hub" {
		t.Errorf("Expected description 'Central hub', got '%s'", hub.Description)
	}
	if len(hub.Portals) != 2 {
		t.Fatalf("Expected 2 portals, got %d", len(hub.Portals))
	}
	if got := hub.Portals[1].Destination.String(); got != "cave#1" {
		t.Errorf("Expected portal 2 to lead to 'cave#1', got '%s'", got)
	}
}

func TestBuilder_PortalReselectsExisting(t *testing.T) {
	b := New()
	b.Add("room").Portal(1).Portal(2).Portal(1).To("hall", 3)

	spec := b.Specs()[0]
	if len(spec.Portals) != 2 {
		t.Fatalf("Expected 2 portals, got %d", len(spec.Portals))
	}
	if spec.Portals[0].Destination.String() != "hall#3" {
		t.Errorf("Expected portal 1 to lead to 'hall#3', got '%s'", spec.Portals[0].Destination)
	}
	if !spec.Portals[1].Destination.IsEmpty() {
		t.Errorf("Expected portal 2 to stay unconnected")
	}
}

func TestBuilder_NewPortalAllowsDuplicates(t *testing.T) {
	b := New()
	b.Add("room").NewPortal(1).To("a", 1).NewPortal(1).To("b", 1)

	spec := b.Specs()[0]
	if len(spec.Portals) != 2 {
		t.Fatalf("Expected 2 portals, got %d", len(spec.Portals))
	}
	if spec.Portals[1].Destination.Partition != "b" {
		t.Errorf("Expected second portal to lead to 'b', got '%s'", spec.Portals[1].Destination.Partition)
	}
}

func TestBuilder_Connect(t *testing.T) {
	b := New().Connect("levels/a.md", 1, "levels/b", 2)

	specs := b.Specs()
	if len(specs) != 2 {
		t.Fatalf("Expected 2 partitions, got %d", len(specs))
	}
	if specs[0].Key != "levels/a" {
		t.Errorf("Expected normalized key 'levels/a', got '%s'", specs[0].Key)
	}
	if got := specs[0].Portals[0].Destination.String(); got != "levels/b#2" {
		t.Errorf("Expected 'levels/b#2', got '%s'", got)
	}
	if got := specs[1].Portals[0].Destination.String(); got != "levels/a#1" {
		t.Errorf("Expected 'levels/a#1', got '%s'", got)
	}
}

func TestBuilder_SpecsAreCopies(t *testing.T) {
	b := New()
	b.Add("room").Portal(1)

	specs := b.Specs()
	specs[0].Portals[0].ID = 99

	if b.Specs()[0].Portals[0].ID != 1 {
		t.Errorf("Specs() must not expose builder state")
	}
}
