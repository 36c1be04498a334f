package loam

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/portico/internal/testutils"
	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	store := New(repo)
	ctx := context.Background()

	specs := testutils.ConnectedWorld()
	for _, spec := range specs {
		require.NoError(t, store.SavePartition(ctx, spec))
	}

	// Documents enumerate in lexical key order.
	slices.SortFunc(specs, func(a, b domain.PartitionSpec) int { return strings.Compare(string(a.Key), string(b.Key)) })
	tests.PartitionStoreContractTest(t, store, specs)
}

func TestStore_DecodesEveryFormat(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"hub.md": `---
description: Central hub
portals:
  - id: 1
    destination:
      partition: levels/forest
      id: 1
  - id: 2
    to: cave#1
  - id: 3
---
The hub.`,
		"levels/forest.md": `---
portals:
  - id: "1"
    to: hub#1
---`,
		"cave.json": `{
  "portals": [{"id": 1, "destination": {"partition": "hub", "id": 2}}]
}`,
	})

	store := New(repo)
	ctx := context.Background()

	keys, err := store.Partitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.PartitionKey{"cave", "hub", "levels/forest"}, keys)

	hub, err := store.GetPartition(ctx, "hub")
	require.NoError(t, err)
	assert.Equal(t, "Central hub", hub.Description)
	assert.Equal(t, []domain.PortalSpec{
		{ID: 1, Destination: testutils.Link("levels/forest", 1)},
		{ID: 2, Destination: testutils.Link("cave", 1)},
		{ID: 3},
	}, hub.Portals)

	forest, err := store.GetPartition(ctx, "levels/forest")
	require.NoError(t, err)
	assert.Equal(t, []domain.PortalSpec{{ID: 1, Destination: testutils.Link("hub", 1)}}, forest.Portals)

	cave, err := store.GetPartition(ctx, "cave")
	require.NoError(t, err)
	assert.Equal(t, []domain.PortalSpec{{ID: 1, Destination: testutils.Link("hub", 2)}}, cave.Portals)
}

func TestStore_ExplicitIDOverridesFileName(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"01-entrance.md": `---
id: entrance
portals:
  - id: 1
---`,
	})

	store := New(repo)
	ctx := context.Background()

	ok, err := store.Contains(ctx, "entrance")
	require.NoError(t, err)
	assert.True(t, ok)

	spec, err := store.GetPartition(ctx, "entrance")
	require.NoError(t, err)
	assert.Equal(t, domain.PartitionKey("entrance"), spec.Key)
	assert.Len(t, spec.Portals, 1)
}

func TestStore_DetectsCollisions(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"foo.md":   "---\nid: foo\n---\n",
		"foo.json": `{"id": "foo"}`,
	})

	_, err := New(repo).Partitions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestStore_InvalidPortalID(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"bad.md": "---\nportals:\n  - id: one\n---\n",
	})

	_, err := New(repo).GetPartition(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portals[0].id")
}

func TestStore_MissingPortalID(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"hub.md": "---\nportals:\n  - id: 1\n    to: forest#1\n  - to: cave#1\n---\n",
	})

	_, err := New(repo).GetPartition(context.Background(), "hub")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portals[1].id: missing")
}

func TestParseDestination(t *testing.T) {
	cases := map[string]domain.Destination{
		"":                {},
		"forest":          {Partition: "forest"},
		"forest#3":        {Partition: "forest", ID: 3},
		" levels/a.md#2 ": {Partition: "levels/a", ID: 2},
	}
	for in, want := range cases {
		got, err := ParseDestination(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDestination("forest#x")
	assert.Error(t, err)
}

func TestToInt(t *testing.T) {
	for _, v := range []any{7, int64(7), uint64(7), float64(7), json.Number("7"), "7"} {
		n, err := toInt(v)
		require.NoError(t, err)
		assert.Equal(t, 7, n)
	}

	n, err := toInt(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = toInt(7.5)
	assert.Error(t, err)
	_, err = toInt([]int{7})
	assert.Error(t, err)
}

func TestStore_Watch(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	store := New(repo)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := store.Watch(ctx)
	require.NoError(t, err)

	// Give the watcher a moment to arm.
	time.Sleep(100 * time.Millisecond)
	testutils.WriteFiles(t, dir, map[string]string{"hub.md": "---\nportals: []\n---\n"})

	select {
	case key := <-ch:
		assert.Equal(t, "hub", key)
	case <-ctx.Done():
		t.Fatal("no change event received")
	}
}
