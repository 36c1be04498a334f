package testutils

import "github.com/aretw0/portico/pkg/domain"

// Link is shorthand for a destination.
func Link(partition string, id int) domain.Destination {
	return domain.Destination{Partition: domain.PartitionKey(partition), ID: id}
}

// ConnectedWorld returns three partitions whose portals all pair up:
// hub#1 <-> forest#1 and hub#2 <-> cave#1.
func ConnectedWorld() []domain.PartitionSpec {
	return []domain.PartitionSpec{
		{
			Key:         "hub",
			Description: "Central hub",
			Portals: []domain.PortalSpec{
				{ID: 1, Destination: Link("forest", 1)},
				{ID: 2, Destination: Link("cave", 1)},
			},
		},
		{
			Key: "forest",
			Portals: []domain.PortalSpec{
				{ID: 1, Destination: Link("hub", 1)},
			},
		},
		{
			Key: "cave",
			Portals: []domain.PortalSpec{
				{ID: 1, Destination: Link("hub", 2)},
			},
		},
	}
}

// BrokenWorld returns partitions exhibiting every issue kind:
//
//	hub:    duplicate id 1 (x2), self loop on 3, unconnected 4
//	forest: dangling 1 -> hub#9, dangling 2 -> nowhere#1
//	cave:   clean
func BrokenWorld() []domain.PartitionSpec {
	return []domain.PartitionSpec{
		{
			Key: "hub",
			Portals: []domain.PortalSpec{
				{ID: 1, Destination: Link("forest", 1)},
				{ID: 1, Destination: Link("cave", 1)},
				{ID: 3, Destination: Link("hub", 3)},
				{ID: 4},
			},
		},
		{
			Key: "forest",
			Portals: []domain.PortalSpec{
				{ID: 1, Destination: Link("hub", 9)},
				{ID: 2, Destination: Link("nowhere", 1)},
			},
		},
		{
			Key: "cave",
			Portals: []domain.PortalSpec{
				{ID: 1, Destination: Link("hub", 1)},
			},
		},
	}
}
