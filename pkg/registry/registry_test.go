package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports/tests"
	"github.com/aretw0/portico/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Contract(t *testing.T) {
	reg := registry.NewRegistry("levels/a", "levels/b", "hub")
	tests.PartitionRegistryContractTest(t, reg, []domain.PartitionKey{"levels/a", "levels/b", "hub"})
}

func TestRegistry_RegisterIgnoresDuplicatesAndEmpty(t *testing.T) {
	reg := registry.NewRegistry("a", "a", "")
	reg.Register("b")
	reg.Register("a")

	keys, err := reg.Partitions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.PartitionKey{"a", "b"}, keys)
}

func TestRegistry_Unregister(t *testing.T) {
	reg := registry.NewRegistry("a", "b", "c")
	reg.Unregister("b")
	reg.Unregister("missing")

	keys, _ := reg.Partitions(context.Background())
	assert.Equal(t, []domain.PartitionKey{"a", "c"}, keys)

	ok, _ := reg.Contains(context.Background(), "b")
	assert.False(t, ok)
}
