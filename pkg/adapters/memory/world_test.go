package memory_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/portico/internal/testutils"
	"github.com/aretw0/portico/pkg/adapters/memory"
	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorld(t *testing.T, opts ...memory.WorldOption) *memory.World {
	t.Helper()
	return memory.NewWorld(memory.NewCatalog(testutils.ConnectedWorld()...), opts...)
}

func TestWorld_LoadActivatesFirstPartition(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	require.NoError(t, w.Load(ctx, "hub"))
	require.NoError(t, w.Load(ctx, "forest"))

	assert.Equal(t, domain.PartitionKey("hub"), w.ActivePartition())
	assert.Equal(t, []domain.PartitionKey{"hub", "forest"}, w.Loaded())

	portals, err := w.Portals("hub")
	require.NoError(t, err)
	require.Len(t, portals, 2)
	assert.Equal(t, testutils.Link("forest", 1), portals[0].Destination)
	assert.Equal(t, domain.PartitionKey("hub"), portals[0].Partition)
}

func TestWorld_LoadHoldsAtThresholdUntilActivated(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	op, err := w.LoadAsync(ctx, "forest")
	require.NoError(t, err)

	select {
	case <-op.Ready():
	case <-time.After(time.Second):
		t.Fatal("load never became ready")
	}
	assert.InDelta(t, ports.ReadyThreshold, op.Progress(), 1e-9)

	select {
	case <-op.Done():
		t.Fatal("load completed without activation")
	case <-time.After(20 * time.Millisecond):
	}
	_, err = w.Portals("forest")
	assert.ErrorIs(t, err, domain.ErrPartitionNotLoaded)

	op.Activate()
	op.Activate()
	<-op.Done()
	require.NoError(t, op.Err())
	assert.Equal(t, 1.0, op.Progress())
	assert.Contains(t, w.Loaded(), domain.PartitionKey("forest"))
}

func TestWorld_LoadUnknownPartitionFails(t *testing.T) {
	w := newWorld(t)

	op, err := w.LoadAsync(context.Background(), "nowhere")
	require.NoError(t, err)
	<-op.Ready()
	<-op.Done()
	assert.ErrorIs(t, op.Err(), domain.ErrPartitionLoad)
	assert.Empty(t, w.Loaded())
}

func TestWorld_LoadCancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := newWorld(t)

	op, err := w.LoadAsync(ctx, "hub")
	require.NoError(t, err)
	<-op.Ready()
	cancel()
	<-op.Done()
	assert.ErrorIs(t, op.Err(), context.Canceled)
}

func TestWorld_ReloadDestroysOldInstances(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	require.NoError(t, w.Load(ctx, "hub"))
	before, _ := w.Portals("hub")

	require.NoError(t, w.Load(ctx, "hub"))
	after, _ := w.Portals("hub")

	assert.False(t, before[0].Alive())
	assert.True(t, after[0].Alive())
	assert.NotSame(t, before[0], after[0])
	assert.Equal(t, []domain.PartitionKey{"hub"}, w.Loaded())
}

func TestWorld_Unload(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, memory.WithLoadDelay(time.Millisecond))
	require.NoError(t, w.Load(ctx, "hub"))
	portals, _ := w.Portals("hub")

	op, err := w.UnloadAsync(ctx, "hub")
	require.NoError(t, err)
	<-op.Done()
	require.NoError(t, op.Err())

	assert.False(t, portals[0].Alive())
	assert.Empty(t, w.Loaded())
	assert.True(t, w.ActivePartition().IsEmpty())

	_, err = w.UnloadAsync(ctx, "hub")
	assert.ErrorIs(t, err, domain.ErrPartitionNotLoaded)
}

func TestWorld_SetActiveRequiresLoaded(t *testing.T) {
	w := newWorld(t)
	assert.ErrorIs(t, w.SetActive("cave"), domain.ErrPartitionNotLoaded)

	require.NoError(t, w.Load(context.Background(), "cave"))
	require.NoError(t, w.SetActive("cave"))
	assert.Equal(t, domain.PartitionKey("cave"), w.ActivePartition())
}

func TestWorld_AddAndRemovePortal(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.Load(context.Background(), "forest"))

	p, err := w.AddPortal("forest", 7, testutils.Link("cave", 1))
	require.NoError(t, err)
	portals, _ := w.Portals("forest")
	assert.Len(t, portals, 2)

	w.RemovePortal(p)
	portals, _ = w.Portals("forest")
	assert.Len(t, portals, 1)
	assert.False(t, p.Alive())

	_, err = w.AddPortal("cave", 1, domain.Destination{})
	assert.ErrorIs(t, err, domain.ErrPartitionNotLoaded)
}

func TestWorld_OpenIsExclusive(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	h1, err := w.Open(ctx, "hub")
	require.NoError(t, err)
	portals, err := h1.Portals()
	require.NoError(t, err)
	require.Len(t, portals, 2)

	var opened atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		h2, err := w.Open(ctx, "forest")
		if err == nil {
			opened.Store(true)
			_ = h2.Close()
		}
	}()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, opened.Load(), "second handle opened while the first was held")

	require.NoError(t, h1.Close())
	require.NoError(t, h1.Close())
	<-done
	assert.True(t, opened.Load())

	assert.False(t, portals[0].Alive())
	_, err = h1.Portals()
	assert.Error(t, err)
}

func TestWorld_OpenUnknownReleasesToken(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	_, err := w.Open(ctx, "nowhere")
	assert.ErrorIs(t, err, domain.ErrPartitionOpen)

	h, err := w.Open(ctx, "cave")
	require.NoError(t, err)
	assert.Equal(t, domain.PartitionKey("cave"), h.Key())
	require.NoError(t, h.Close())
}

func TestWorld_OpenRespectsContext(t *testing.T) {
	w := newWorld(t)
	h, err := w.Open(context.Background(), "hub")
	require.NoError(t, err)
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = w.Open(ctx, "cave")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorld_SpawnHookRunsForLoadedPortals(t *testing.T) {
	var spawned []domain.Destination
	w := newWorld(t, memory.WithSpawnHook(func(p *domain.Portal) {
		spawned = append(spawned, domain.Destination{Partition: p.Partition, ID: p.ID})
	}))

	require.NoError(t, w.Load(context.Background(), "hub"))
	h, err := w.Open(context.Background(), "forest")
	require.NoError(t, err)
	require.NoError(t, h.Close())

	assert.Equal(t, []domain.Destination{testutils.Link("hub", 1), testutils.Link("hub", 2)}, spawned,
		"opened partitions are not spawned")
}
