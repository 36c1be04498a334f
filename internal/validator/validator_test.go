package validator_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/portico/internal/testutils"
	"github.com/aretw0/portico/internal/validator"
	"github.com/aretw0/portico/pkg/adapters/memory"
	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validate(t *testing.T, specs []domain.PartitionSpec, checkDisconnected bool) *domain.ValidationReport {
	t.Helper()
	catalog := memory.NewCatalog(specs...)
	v := validator.New(catalog, memory.NewWorld(catalog))
	report, err := v.Validate(context.Background(), checkDisconnected)
	require.NoError(t, err)
	return report
}

func TestValidate_ConnectedWorldIsClean(t *testing.T) {
	report := validate(t, testutils.ConnectedWorld(), true)

	assert.True(t, report.Clean)
	assert.Empty(t, report.Partitions)
	assert.Empty(t, report.Failures)
	assert.Equal(t, 3, report.Visited)
}

func TestValidate_BrokenWorld(t *testing.T) {
	report := validate(t, testutils.BrokenWorld(), false)

	assert.False(t, report.Clean)
	require.Len(t, report.Partitions, 2, "clean partitions are omitted")

	hub := report.Partitions[0]
	assert.Equal(t, domain.PartitionKey("hub"), hub.Partition)
	assert.Equal(t, []domain.Issue{
		domain.NewSelfLoopIssue(3, testutils.Link("hub", 3)),
		domain.NewDuplicateIssue(1, 2),
	}, hub.Issues)

	forest := report.Partitions[1]
	assert.Equal(t, domain.PartitionKey("forest"), forest.Partition)
	assert.Equal(t, []domain.Issue{
		domain.NewDanglingIssue(1, testutils.Link("hub", 9)),
		domain.NewDanglingIssue(2, testutils.Link("nowhere", 1)),
	}, forest.Issues)

	_, ok := report.Find("cave")
	assert.False(t, ok)
}

func TestValidate_DisconnectedIsOptIn(t *testing.T) {
	without := validate(t, testutils.BrokenWorld(), false)
	with := validate(t, testutils.BrokenWorld(), true)

	assert.Zero(t, without.CountByKind()[domain.IssueDisconnected])
	assert.Equal(t, 1, with.CountByKind()[domain.IssueDisconnected])

	hub, ok := with.Find("hub")
	require.True(t, ok)
	assert.Contains(t, hub.Message(), "- Portal 4 has no destination")
}

func TestValidate_DuplicateCountsEveryOccurrence(t *testing.T) {
	report := validate(t, []domain.PartitionSpec{{
		Key: "a",
		Portals: []domain.PortalSpec{
			{ID: 7, Destination: testutils.Link("a", 1)},
			{ID: 1, Destination: testutils.Link("a", 7)},
			{ID: 7, Destination: testutils.Link("a", 1)},
			{ID: 7, Destination: testutils.Link("a", 1)},
		},
	}}, false)

	a, ok := report.Find("a")
	require.True(t, ok)
	require.Len(t, a.Issues, 1)
	assert.Equal(t, "Found 3 portals with identical id = 7", a.Issues[0].Message)
}

func TestValidate_SelfLoopRequiresSamePartition(t *testing.T) {
	report := validate(t, []domain.PartitionSpec{
		{Key: "a", Portals: []domain.PortalSpec{{ID: 1, Destination: testutils.Link("b", 1)}}},
		{Key: "b", Portals: []domain.PortalSpec{{ID: 1, Destination: testutils.Link("a", 1)}}},
	}, true)

	assert.True(t, report.Clean)
}

func TestValidate_DanglingFirstOccurrenceOnly(t *testing.T) {
	// The second portal with id 1 is shadowed by the first in the snapshot.
	report := validate(t, []domain.PartitionSpec{
		{Key: "a", Portals: []domain.PortalSpec{
			{ID: 1, Destination: testutils.Link("b", 1)},
			{ID: 1, Destination: testutils.Link("b", 5)},
		}},
		{Key: "b", Portals: []domain.PortalSpec{{ID: 1, Destination: testutils.Link("a", 1)}}},
	}, false)

	assert.Equal(t, map[domain.IssueKind]int{domain.IssueDuplicateID: 1}, report.CountByKind())
}

func TestValidate_ReportIsFreshEachRun(t *testing.T) {
	catalog := memory.NewCatalog(testutils.BrokenWorld()...)
	v := validator.New(catalog, memory.NewWorld(catalog))

	first, err := v.Validate(context.Background(), false)
	require.NoError(t, err)

	catalog.Put(domain.PartitionSpec{Key: "hub", Portals: []domain.PortalSpec{{ID: 9, Destination: testutils.Link("forest", 1)}}})
	catalog.Put(domain.PartitionSpec{Key: "forest", Portals: []domain.PortalSpec{{ID: 1, Destination: testutils.Link("hub", 9)}}})
	catalog.Remove("cave")

	second, err := v.Validate(context.Background(), false)
	require.NoError(t, err)

	assert.False(t, first.Clean)
	assert.True(t, second.Clean)
	assert.NotSame(t, first, second)
}

// recordingOpener wraps a world and records open order and concurrency.
type recordingOpener struct {
	inner  ports.PartitionOpener
	fail   map[domain.PartitionKey]bool
	panics map[domain.PartitionKey]bool

	mu      sync.Mutex
	open    int
	maxOpen int
	order   []domain.PartitionKey
}

func (r *recordingOpener) Open(ctx context.Context, key domain.PartitionKey) (ports.PartitionHandle, error) {
	if r.fail[key] {
		return nil, errors.New("corrupt partition")
	}
	h, err := r.inner.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.open++
	r.maxOpen = max(r.maxOpen, r.open)
	r.order = append(r.order, key)
	r.mu.Unlock()
	return &recordingHandle{PartitionHandle: h, owner: r, panics: r.panics[key]}, nil
}

type recordingHandle struct {
	ports.PartitionHandle
	owner  *recordingOpener
	panics bool
}

func (h *recordingHandle) Portals() ([]*domain.Portal, error) {
	if h.panics {
		panic("enumeration blew up")
	}
	return h.PartitionHandle.Portals()
}

func (h *recordingHandle) Close() error {
	h.owner.mu.Lock()
	h.owner.open--
	h.owner.mu.Unlock()
	return h.PartitionHandle.Close()
}

func TestValidate_SequentialInRegistryOrder(t *testing.T) {
	catalog := memory.NewCatalog(testutils.ConnectedWorld()...)
	opener := &recordingOpener{inner: memory.NewWorld(catalog)}

	var visits []domain.PartitionVisitEvent
	v := validator.New(catalog, opener, validator.WithLifecycleHooks(domain.LifecycleHooks{
		OnPartitionVisit: func(_ context.Context, e *domain.PartitionVisitEvent) {
			visits = append(visits, *e)
		},
	}))

	_, err := v.Validate(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, opener.maxOpen)
	assert.Zero(t, opener.open, "every handle is closed")
	assert.Equal(t, []domain.PartitionKey{"hub", "forest", "cave"}, opener.order)

	require.Len(t, visits, 3)
	assert.Equal(t, domain.PartitionKey("forest"), visits[1].Partition)
	assert.Equal(t, 1, visits[1].Index)
	assert.Equal(t, 3, visits[1].Total)
}

func TestValidate_OpenFailureIsRecordedAndBatchContinues(t *testing.T) {
	catalog := memory.NewCatalog(testutils.ConnectedWorld()...)
	opener := &recordingOpener{
		inner: memory.NewWorld(catalog),
		fail:  map[domain.PartitionKey]bool{"forest": true},
	}

	report, err := validator.New(catalog, opener).Validate(context.Background(), false)
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, domain.PartitionKey("forest"), report.Failures[0].Partition)
	assert.Contains(t, report.Failures[0].Error, "corrupt partition")
	assert.Equal(t, 2, report.Visited)

	// hub#1 -> forest#1 cannot be checked and is not reported.
	assert.Empty(t, report.Partitions)
	assert.False(t, report.Clean)
}

func TestValidate_PanicIsRecordedAndHandleClosed(t *testing.T) {
	catalog := memory.NewCatalog(testutils.ConnectedWorld()...)
	opener := &recordingOpener{
		inner:  memory.NewWorld(catalog),
		panics: map[domain.PartitionKey]bool{"hub": true},
	}

	report, err := validator.New(catalog, opener).Validate(context.Background(), false)
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Error, "enumeration blew up")
	assert.Equal(t, []domain.PartitionKey{"hub", "forest", "cave"}, opener.order)
	assert.Zero(t, opener.open)
}

func TestValidate_MissingDefinitionIsAFailure(t *testing.T) {
	catalog := memory.NewCatalog(testutils.ConnectedWorld()...)
	registry := memory.NewCatalog(append(testutils.ConnectedWorld(), domain.PartitionSpec{Key: "ghost"})...)

	report, err := validator.New(registry, memory.NewWorld(catalog)).Validate(context.Background(), false)
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, domain.PartitionKey("ghost"), report.Failures[0].Partition)
}

func TestValidate_FinishHook(t *testing.T) {
	catalog := memory.NewCatalog(testutils.BrokenWorld()...)
	var got *domain.ValidationReport
	v := validator.New(catalog, memory.NewWorld(catalog), validator.WithLifecycleHooks(domain.LifecycleHooks{
		OnValidationFinish: func(_ context.Context, e *domain.ValidationEvent) {
			got = e.Report
		},
	}))

	report, err := v.Validate(context.Background(), false)
	require.NoError(t, err)
	assert.Same(t, report, got)
}

func TestValidate_CancelledContext(t *testing.T) {
	catalog := memory.NewCatalog(testutils.ConnectedWorld()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := validator.New(catalog, memory.NewWorld(catalog)).Validate(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
}
