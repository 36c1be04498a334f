package ports

import (
	"context"

	"github.com/aretw0/portico/pkg/domain"
)

// PartitionRegistry enumerates every known partition. It drives the validator's
// iteration order and the controller's destination check.
type PartitionRegistry interface {
	// Partitions returns all known keys in a stable enumeration order.
	Partitions(ctx context.Context) ([]domain.PartitionKey, error)

	// Contains reports whether key is registered.
	Contains(ctx context.Context, key domain.PartitionKey) (bool, error)
}

// PartitionStore is a registry that can also return partition definitions.
type PartitionStore interface {
	PartitionRegistry

	// GetPartition returns the definition of key.
	// Returns domain.ErrPartitionNotFound if the key is unknown.
	GetPartition(ctx context.Context, key domain.PartitionKey) (domain.PartitionSpec, error)
}

// ReportSink receives validation reports, e.g. for a diagnostic panel.
type ReportSink interface {
	Publish(ctx context.Context, report *domain.ValidationReport) error
}
