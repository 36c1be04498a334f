// Package runtime drives partition transitions.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/portico/internal/logging"
	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports"
)

// Resolver finds live portals of the active partition by id.
// *cache.PortalCache satisfies it.
type Resolver interface {
	Get(id int) (*domain.Portal, bool)
	Partition() domain.PartitionKey
	Rebuild()
}

// Controller runs at most one partition transition at a time.
//
// A transition unloads the active partition while loading the destination,
// holds the loaded destination until the activation gate is open, switches
// it in and notifies the arrival observers of the destination portal.
type Controller struct {
	loader   ports.PartitionLoader
	registry ports.PartitionRegistry
	resolver Resolver
	gate     *Gate
	logger   *slog.Logger
	hooks    domain.LifecycleHooks

	inProgress atomic.Bool
	state      atomic.Value // domain.TransitionState

	mu      sync.Mutex
	current *Transition

	started  domain.Observers[*Transition]
	finished domain.Observers[*Transition]
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger configures a logger for the controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithGate shares an activation gate with the controller.
func WithGate(g *Gate) Option {
	return func(c *Controller) {
		c.gate = g
	}
}

// NewController creates an idle controller. The activation gate starts open.
func NewController(loader ports.PartitionLoader, registry ports.PartitionRegistry, resolver Resolver, opts ...Option) *Controller {
	c := &Controller{
		loader:   loader,
		registry: registry,
		resolver: resolver,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gate == nil {
		c.gate = NewGate(true)
	}
	c.state.Store(domain.StateIdle)
	return c
}

// InProgress reports whether a transition has been accepted and not yet finished.
func (c *Controller) InProgress() bool {
	return c.inProgress.Load()
}

// State returns the phase of the running transition, or StateIdle.
func (c *Controller) State() domain.TransitionState {
	return c.state.Load().(domain.TransitionState)
}

// Current returns the running or most recently finished transition, if any.
func (c *Controller) Current() *Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Gate returns the activation gate.
func (c *Controller) Gate() *Gate {
	return c.gate
}

// SetActivationAllowed opens or closes the activation gate.
func (c *Controller) SetActivationAllowed(allowed bool) {
	c.gate.Set(allowed)
}

// OnStart registers an observer invoked when a transition is accepted.
func (c *Controller) OnStart(fn func(*Transition)) (remove func()) {
	return c.started.Add(fn)
}

// OnFinish registers an observer invoked when a transition finishes, after
// the in-progress flag has been cleared.
func (c *Controller) OnFinish(fn func(*Transition)) (remove func()) {
	return c.finished.Add(fn)
}

// Enter requests a transition through portal p to its destination.
func (c *Controller) Enter(ctx context.Context, p *domain.Portal) (*Transition, error) {
	if p == nil || p.Destination.IsEmpty() {
		id := 0
		if p != nil {
			id = p.ID
		}
		c.logger.Warn("portal is not connected", "portal_id", id)
		return nil, &domain.TransitionError{PortalID: id, Err: domain.ErrEmptyDestination}
	}
	return c.Begin(ctx, p.Destination.Partition, p.Destination.ID)
}

// Begin requests a transition to portal portalID of partition dest.
//
// Rejections are synchronous and leave no trace: dest is empty, dest is not
// registered, or another transition is running. The in-progress flag is only
// taken once the request has passed every check. An accepted transition runs in the
// background; ctx only contributes values, cancelling it does not abort the transition.
func (c *Controller) Begin(ctx context.Context, dest domain.PartitionKey, portalID int) (*Transition, error) {
	reject := func(err error) (*Transition, error) {
		return nil, &domain.TransitionError{Partition: dest, PortalID: portalID, Err: err}
	}

	if dest.IsEmpty() {
		c.logger.Warn("destination partition is empty", "portal_id", portalID)
		return reject(domain.ErrEmptyDestination)
	}

	known, err := c.registry.Contains(ctx, dest)
	if err != nil {
		return reject(fmt.Errorf("failed to check destination: %w", err))
	}
	if !known {
		c.logger.Error("destination partition is not registered", "partition", dest)
		return reject(domain.ErrUnknownDestinationPartition)
	}

	// Acceptance. Rejected requests above never touch the flag.
	if !c.inProgress.CompareAndSwap(false, true) {
		c.logger.Error("cannot start a transition while another one is in progress",
			"partition", dest, "portal_id", portalID)
		return reject(domain.ErrTransitionInProgress)
	}

	from := c.loader.ActivePartition()
	req := domain.TransitionRequest{Destination: dest, PortalID: portalID}
	if !from.IsEmpty() {
		req.Unload = []domain.PartitionKey{from}
	}

	t := newTransition(req)
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()

	go c.run(context.WithoutCancel(ctx), t, from)
	return t, nil
}

// run drives an accepted transition. from is the active partition captured at
// acceptance; the unload list and the skip-swap decision both derive from it.
func (c *Controller) run(ctx context.Context, t *Transition, from domain.PartitionKey) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	req := t.Request()

	c.logger.Info("transition started", "partition", req.Destination, "portal_id", req.PortalID, "from", from)
	c.started.Notify(t)
	if c.hooks.OnTransitionStart != nil {
		c.hooks.OnTransitionStart(ctx, c.event(domain.EventTransitionStart, t))
	}

	var err error
	if from != req.Destination {
		err = c.swap(ctx, t)
	}

	var portal *domain.Portal
	if err == nil {
		portal, err = c.arrive(ctx, t, from)
	}

	if err != nil && !errors.Is(err, domain.ErrDestinationPortalNotFound) {
		c.setState(ctx, t, domain.StateAborted)
		c.logger.Error("transition aborted", "partition", req.Destination, "portal_id", req.PortalID, "err", err)
	}
	if err != nil {
		err = &domain.TransitionError{Partition: req.Destination, PortalID: req.PortalID, Err: err}
	}
	t.finish(portal, err)

	c.state.Store(domain.StateIdle)
	c.inProgress.Store(false)

	c.logger.Info("transition finished", "partition", req.Destination, "portal_id", req.PortalID,
		"duration", time.Since(start), "ok", err == nil)
	c.finished.Notify(t)
	if c.hooks.OnTransitionFinish != nil {
		e := c.event(domain.EventTransitionFinish, t)
		e.Duration = time.Since(start)
		e.Err = err
		c.hooks.OnTransitionFinish(ctx, e)
	}
	close(t.done)
}

// swap unloads the requested partitions while loading the destination,
// then activates the destination once it is ready and the gate is open.
func (c *Controller) swap(ctx context.Context, t *Transition) error {
	req := t.Request()
	c.setState(ctx, t, domain.StateUnloadingLoading)

	load, err := c.loader.LoadAsync(ctx, req.Destination)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPartitionLoad, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range req.Unload {
		g.Go(func() error {
			op, err := c.loader.UnloadAsync(ctx, key)
			if err != nil {
				return fmt.Errorf("unload %s: %w", key, err)
			}
			if err := awaitOperation(gctx, op); err != nil {
				return fmt.Errorf("unload %s: %w", key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPartitionLoad, err)
	}

	c.setState(ctx, t, domain.StateAwaitingLoadThreshold)
	select {
	case <-load.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-load.Done():
		if err := load.Err(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPartitionLoad, err)
		}
	default:
	}

	c.setState(ctx, t, domain.StateAwaitingActivationGate)
	if err := c.gate.Wait(ctx); err != nil {
		return err
	}

	c.setState(ctx, t, domain.StateActivating)
	load.Activate()
	if err := awaitOperation(ctx, load); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPartitionLoad, err)
	}
	if err := c.loader.SetActive(req.Destination); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPartitionLoad, err)
	}
	return nil
}

// arrive resolves the destination portal and notifies its arrival observers.
// A missing portal is reported but nothing is rolled back.
func (c *Controller) arrive(ctx context.Context, t *Transition, from domain.PartitionKey) (*domain.Portal, error) {
	req := t.Request()
	c.setState(ctx, t, domain.StateResolvingDestination)

	if c.resolver.Partition() != req.Destination {
		c.resolver.Rebuild()
	}
	p, ok := c.resolver.Get(req.PortalID)
	if !ok {
		c.logger.Error("could not find destination portal",
			"partition", req.Destination, "portal_id", req.PortalID)
		return nil, domain.ErrDestinationPortalNotFound
	}

	c.setState(ctx, t, domain.StateNotifyingArrival)
	p.Arrive(from)
	return p, nil
}

func (c *Controller) setState(ctx context.Context, t *Transition, s domain.TransitionState) {
	c.state.Store(s)
	t.setState(s)
	c.logger.Debug("transition phase", "partition", t.req.Destination, "state", s)
	if c.hooks.OnPhaseChange != nil {
		c.hooks.OnPhaseChange(ctx, c.event(domain.EventPhaseChange, t))
	}
}

func (c *Controller) event(typ domain.EventType, t *Transition) *domain.TransitionEvent {
	return &domain.TransitionEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
		Request:   t.Request(),
		State:     t.State(),
	}
}

func awaitOperation(ctx context.Context, op ports.Operation) error {
	select {
	case <-op.Done():
		return op.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
