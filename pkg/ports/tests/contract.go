package tests

import (
	"context"
	"testing"

	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// PartitionRegistryContractTest verifies that an adapter complies with ports.PartitionRegistry.
// expected must list the registered keys in the order the adapter should enumerate them.
func PartitionRegistryContractTest(t *testing.T, registry ports.PartitionRegistry, expected []domain.PartitionKey) {
	t.Helper()
	ctx := context.Background()

	t.Run("Partitions_Order", func(t *testing.T) {
		keys, err := registry.Partitions(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, keys)
	})

	t.Run("Partitions_Stable", func(t *testing.T) {
		first, err := registry.Partitions(ctx)
		require.NoError(t, err)
		second, err := registry.Partitions(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second, "enumeration order must be stable between calls")
	})

	t.Run("Contains_Registered", func(t *testing.T) {
		for _, key := range expected {
			ok, err := registry.Contains(ctx, key)
			require.NoError(t, err)
			assert.True(t, ok, "expected %s to be registered", key)
		}
	})

	t.Run("Contains_Unknown", func(t *testing.T) {
		ok, err := registry.Contains(ctx, "non-existent/partition")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

// PartitionStoreContractTest verifies that an adapter complies with ports.PartitionStore.
// specs must be listed in the store's enumeration order.
func PartitionStoreContractTest(t *testing.T, store ports.PartitionStore, specs []domain.PartitionSpec) {
	t.Helper()
	ctx := context.Background()

	keys := make([]domain.PartitionKey, 0, len(specs))
	for _, s := range specs {
		keys = append(keys, s.Key)
	}
	PartitionRegistryContractTest(t, store, keys)

	t.Run("GetPartition_Success", func(t *testing.T) {
		for _, want := range specs {
			got, err := store.GetPartition(ctx, want.Key)
			require.NoError(t, err, "get %s", want.Key)
			assert.Equal(t, want.Key, got.Key)
			if len(want.Portals) == 0 {
				assert.Empty(t, got.Portals, "portals of %s", want.Key)
				continue
			}
			assert.Equal(t, want.Portals, got.Portals, "portals of %s", want.Key)
		}
	})

	t.Run("GetPartition_NotFound", func(t *testing.T) {
		_, err := store.GetPartition(ctx, "non-existent/partition")
		assert.ErrorIs(t, err, domain.ErrPartitionNotFound)
	})
}
