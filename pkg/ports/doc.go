/*
Package ports defines the driven ports (interfaces) of the Portico core.

These interfaces decouple the transition controller, the lookup cache and the
graph validator from the concrete world implementation, allowing the core to
run against an in-memory world, a loam repository, or a remote registry.

# Key Interfaces

  - PartitionLoader: Asynchronous load/unload of partitions and the active-partition switch.
  - PortalSource: Enumerates the live portals of a loaded partition.
  - PartitionRegistry: Enumerates all known partition keys.
  - PartitionStore: Registry that can also return partition definitions.
  - PartitionOpener: Grants exclusive, one-at-a-time access to a partition's portal set.
  - ReportSink: Receives validation reports for presentation.
  - PortalLookup: Read-only view of the id-keyed portal cache.
*/
package ports
