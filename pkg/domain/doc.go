/*
Package domain contains the core domain models of the Portico world graph.

It defines the entities shared by every other component: partitions, the portals they hold,
the destination links between portals, transition requests and validation reports.
This package is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - PartitionKey: Stable, path-like identifier of an independently loadable partition.
  - Portal: A live portal instance belonging to exactly one loaded partition.
  - Destination: Optional (partition, portal id) link. Empty means "unconnected".
  - PartitionSpec: The static definition a partition is instantiated from.
  - TransitionRequest: Transient value describing one partition swap.
  - ValidationReport: The result of a cross-partition consistency check.
*/
package domain
