package portico

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/loam"

	"github.com/aretw0/portico/internal/cache"
	"github.com/aretw0/portico/internal/logging"
	"github.com/aretw0/portico/internal/runtime"
	"github.com/aretw0/portico/internal/validator"
	loamAdapter "github.com/aretw0/portico/pkg/adapters/loam"
	"github.com/aretw0/portico/pkg/adapters/memory"
	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports"
)

// Transition is the handle of an accepted transition.
type Transition = runtime.Transition

// System is the high-level entry point for the Portico library.
// It wires a partition store, a world, the portal cache, the validator and the
// transition controller together.
type System struct {
	store      ports.PartitionStore
	registry   ports.PartitionRegistry
	world      ports.World
	cache      *cache.PortalCache
	validator  *validator.Validator
	controller *runtime.Controller
	sinks      []ports.ReportSink

	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	loadDelay  time.Duration
	gateOpen   bool
	spawnHooks []func(*domain.Portal)

	// Name is the base name of the repository, if any.
	Name string
}

// Option defines a functional option for configuring the System.
type Option func(*System)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *System) {
		s.hooks = domain.MergeHooks(s.hooks, hooks)
	}
}

// WithStore injects a custom PartitionStore, bypassing the default Loam initialization.
func WithStore(store ports.PartitionStore) Option {
	return func(s *System) {
		s.store = store
	}
}

// WithRegistry overrides the registry used for enumeration and destination checks.
// By default the store is the registry.
func WithRegistry(registry ports.PartitionRegistry) Option {
	return func(s *System) {
		s.registry = registry
	}
}

// WithWorld injects a custom world. By default an in-memory world over the store is used.
func WithWorld(world ports.World) Option {
	return func(s *System) {
		s.world = world
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *System) {
		s.logger = logger
	}
}

// WithReportSink adds a destination for validation reports.
func WithReportSink(sink ports.ReportSink) Option {
	return func(s *System) {
		s.sinks = append(s.sinks, sink)
	}
}

// WithLoadDelay simulates load latency in the default in-memory world.
func WithLoadDelay(d time.Duration) Option {
	return func(s *System) {
		s.loadDelay = d
	}
}

// WithActivationGate sets the initial state of the activation gate (default: open).
func WithActivationGate(open bool) Option {
	return func(s *System) {
		s.gateOpen = open
	}
}

// WithSpawnHook runs fn for every portal instantiated by the default world.
// Use it to attach arrival observers.
func WithSpawnHook(fn func(*domain.Portal)) Option {
	return func(s *System) {
		s.spawnHooks = append(s.spawnHooks, fn)
	}
}

// New initializes a new Portico System.
// By default, it reads partitions from a Loam repository at the given path.
// If WithStore is provided, repoPath can be empty and Loam is skipped.
func New(repoPath string, opts ...Option) (*System, error) {
	s := &System{gateOpen: true}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.NewNop()
	}

	if s.store == nil {
		if repoPath == "" {
			return nil, fmt.Errorf("repoPath is required when no custom store is provided")
		}

		absPath, err := filepath.Abs(repoPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		s.Name = filepath.Base(absPath)

		// Strict mode gives consistent numeric types across JSON and YAML documents.
		// The system never writes partitions, so the repository is opened read-only.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}
		s.store = loamAdapter.New(repo, loamAdapter.WithLogger(s.logger))
	} else if repoPath != "" {
		s.Name = filepath.Base(repoPath)
	}

	if s.Name != "" {
		s.logger = s.logger.With("world", s.Name)
	}
	if s.registry == nil {
		s.registry = s.store
	}

	if s.world == nil {
		worldOpts := []memory.WorldOption{
			memory.WithLogger(s.logger),
			memory.WithLoadDelay(s.loadDelay),
		}
		if len(s.spawnHooks) > 0 {
			hooks := s.spawnHooks
			worldOpts = append(worldOpts, memory.WithSpawnHook(func(p *domain.Portal) {
				for _, fn := range hooks {
					fn(p)
				}
			}))
		}
		s.world = memory.NewWorld(s.store, worldOpts...)
	}

	s.cache = cache.NewPortalCache(s.world, cache.WithLogger(s.logger))
	s.validator = validator.New(s.registry, s.world,
		validator.WithLogger(s.logger),
		validator.WithLifecycleHooks(s.hooks),
	)
	s.controller = runtime.NewController(s.world, s.registry, s.cache,
		runtime.WithLogger(s.logger),
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithGate(runtime.NewGate(s.gateOpen)),
	)

	return s, nil
}

// Start loads key synchronously and makes it the active partition.
// It bypasses the controller and is meant for booting the world.
func (s *System) Start(ctx context.Context, key domain.PartitionKey) error {
	op, err := s.world.LoadAsync(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	op.Activate()
	select {
	case <-op.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := op.Err(); err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := s.world.SetActive(key); err != nil {
		return err
	}
	s.cache.Rebuild()
	s.logger.Info("partition started", "partition", key)
	return nil
}

// Travel requests a transition to portal portalID of partition dest.
func (s *System) Travel(ctx context.Context, dest domain.PartitionKey, portalID int) (*Transition, error) {
	return s.controller.Begin(ctx, dest, portalID)
}

// Enter requests a transition through portal p.
func (s *System) Enter(ctx context.Context, p *domain.Portal) (*Transition, error) {
	return s.controller.Enter(ctx, p)
}

// EnterByID enters the portal with the given id in the active partition.
func (s *System) EnterByID(ctx context.Context, id int) (*Transition, error) {
	p, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d in %s", domain.ErrDestinationPortalNotFound, id, s.world.ActivePartition())
	}
	return s.controller.Enter(ctx, p)
}

// Validate checks the portal graph and publishes the report to every sink.
// Sink failures are returned alongside the report.
func (s *System) Validate(ctx context.Context, checkDisconnected bool) (*domain.ValidationReport, error) {
	report, err := s.validator.Validate(ctx, checkDisconnected)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, report); err != nil {
			s.logger.Error("failed to publish report", "err", err)
			errs = append(errs, err)
		}
	}
	return report, errors.Join(errs...)
}

// Portal returns the live portal with the given id in the active partition.
func (s *System) Portal(id int) (*domain.Portal, bool) {
	return s.cache.Get(id)
}

// ActivePartition returns the active partition key.
func (s *System) ActivePartition() domain.PartitionKey {
	return s.world.ActivePartition()
}

// SetActivationAllowed opens or closes the activation gate.
func (s *System) SetActivationAllowed(allowed bool) {
	s.controller.SetActivationAllowed(allowed)
}

// ActivationAllowed reports whether the activation gate is open.
func (s *System) ActivationAllowed() bool {
	return s.controller.Gate().Open()
}

// InProgress reports whether a transition is running.
func (s *System) InProgress() bool {
	return s.controller.InProgress()
}

// State returns the phase of the running transition.
func (s *System) State() domain.TransitionState {
	return s.controller.State()
}

// Current returns the running or most recently finished transition, if any.
func (s *System) Current() *Transition {
	return s.controller.Current()
}

// OnTransitionStart registers a start observer.
func (s *System) OnTransitionStart(fn func(*Transition)) (remove func()) {
	return s.controller.OnStart(fn)
}

// OnTransitionFinish registers a finish observer.
func (s *System) OnTransitionFinish(fn func(*Transition)) (remove func()) {
	return s.controller.OnFinish(fn)
}

// Inspect returns every partition definition in registry order.
func (s *System) Inspect(ctx context.Context) ([]domain.PartitionSpec, error) {
	keys, err := s.registry.Partitions(ctx)
	if err != nil {
		return nil, err
	}
	specs := make([]domain.PartitionSpec, 0, len(keys))
	for _, key := range keys {
		spec, err := s.store.GetPartition(ctx, key)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Watch returns a channel that signals when the underlying partitions change.
// Returns error if the store does not support watching.
func (s *System) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := s.store.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current store does not support watching")
}

// Cache returns a read-only view of the portal lookup cache.
func (s *System) Cache() ports.PortalLookup {
	return cacheView{s.cache}
}

// cacheView hides Rebuild from callers outside the system.
type cacheView struct {
	c *cache.PortalCache
}

func (v cacheView) Get(id int) (*domain.Portal, bool) { return v.c.Get(id) }
func (v cacheView) Partition() domain.PartitionKey    { return v.c.Partition() }
func (v cacheView) Stats() domain.CacheStats          { return v.c.Stats() }

// Store returns the partition store.
func (s *System) Store() ports.PartitionStore {
	return s.store
}
