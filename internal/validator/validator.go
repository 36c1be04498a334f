// Package validator checks the portal graph across every registered partition.
package validator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/portico/internal/logging"
	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports"
)

// Validator runs the two-pass portal graph check.
//
// Pass 1 opens every registered partition in turn, checks its portals locally
// and snapshots (id, destination) pairs. Pass 2 resolves every recorded
// destination against the snapshot.
type Validator struct {
	registry ports.PartitionRegistry
	opener   ports.PartitionOpener
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger configures a logger for the validator.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithLifecycleHooks registers progress and completion callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(v *Validator) {
		v.hooks = hooks
	}
}

// New creates a validator that enumerates registry and inspects partitions through opener.
func New(registry ports.PartitionRegistry, opener ports.PartitionOpener, opts ...Option) *Validator {
	v := &Validator{
		registry: registry,
		opener:   opener,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// snapshot is the first-occurrence-wins portal table of one visited partition.
type snapshot struct {
	order []int
	dests map[int]domain.Destination
}

// Validate produces a fresh report. Only a registry enumeration failure or
// context cancellation aborts the run; per-partition failures are recorded
// in the report and the batch continues.
func (v *Validator) Validate(ctx context.Context, checkDisconnected bool) (*domain.ValidationReport, error) {
	start := time.Now()

	keys, err := v.registry.Partitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate partitions: %w", err)
	}

	issues := make(map[domain.PartitionKey][]domain.Issue, len(keys))
	visited := make(map[domain.PartitionKey]*snapshot, len(keys))
	report := &domain.ValidationReport{}

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if v.hooks.OnPartitionVisit != nil {
			v.hooks.OnPartitionVisit(ctx, &domain.PartitionVisitEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventPartitionVisit},
				Partition: key,
				Index:     i,
				Total:     len(keys),
			})
		}

		snap, found, err := v.visit(ctx, key, checkDisconnected)
		if err != nil {
			v.logger.Error("partition validation failed", "partition", key, "err", err)
			report.Failures = append(report.Failures, domain.PartitionFailure{
				Partition: key,
				Error:     err.Error(),
			})
			continue
		}
		visited[key] = snap
		issues[key] = found
		report.Visited++
	}

	for _, key := range keys {
		snap, ok := visited[key]
		if !ok {
			continue
		}
		for _, id := range snap.order {
			dest := snap.dests[id]
			if dest.IsEmpty() || v.failed(report, dest.Partition) {
				continue
			}
			target, seen := visited[dest.Partition]
			if !seen || !target.has(dest.ID) {
				issues[key] = append(issues[key], domain.NewDanglingIssue(id, dest))
			}
		}
	}

	for _, key := range keys {
		if len(issues[key]) > 0 {
			report.Partitions = append(report.Partitions, domain.PartitionReport{
				Partition: key,
				Issues:    issues[key],
			})
		}
	}
	report.Clean = len(report.Partitions) == 0 && len(report.Failures) == 0

	v.logger.Info("validation finished",
		"partitions", len(keys),
		"visited", report.Visited,
		"issues", report.IssueCount(),
		"failures", len(report.Failures),
	)
	if v.hooks.OnValidationFinish != nil {
		v.hooks.OnValidationFinish(ctx, &domain.ValidationEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventValidationFinish},
			Report:    report,
			Duration:  time.Since(start),
		})
	}
	return report, nil
}

// visit opens one partition, runs the local checks and closes it again
// before returning. A panic while inspecting is reported as an error.
func (v *Validator) visit(ctx context.Context, key domain.PartitionKey, checkDisconnected bool) (snap *snapshot, found []domain.Issue, err error) {
	h, err := v.opener.Open(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", domain.ErrPartitionOpen, key, err)
	}
	defer func() {
		if r := recover(); r != nil {
			snap, found = nil, nil
			err = fmt.Errorf("panic while inspecting %s: %v", key, r)
		}
		if cerr := h.Close(); cerr != nil {
			v.logger.Warn("failed to close partition", "partition", key, "err", cerr)
		}
	}()

	portals, err := h.Portals()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate portals in %s: %w", key, err)
	}

	snap = &snapshot{dests: make(map[int]domain.Destination, len(portals))}
	counts := make(map[int]int, len(portals))
	var countOrder []int

	for _, p := range portals {
		if counts[p.ID] == 0 {
			countOrder = append(countOrder, p.ID)
		}
		counts[p.ID]++

		if !p.Destination.IsEmpty() && p.Destination.Partition == key && p.Destination.ID == p.ID {
			found = append(found, domain.NewSelfLoopIssue(p.ID, p.Destination))
		}
		if checkDisconnected && p.Destination.IsEmpty() {
			found = append(found, domain.NewDisconnectedIssue(p.ID))
		}

		if _, exists := snap.dests[p.ID]; !exists {
			snap.order = append(snap.order, p.ID)
			snap.dests[p.ID] = p.Destination
		}
	}

	for _, id := range countOrder {
		if n := counts[id]; n > 1 {
			found = append(found, domain.NewDuplicateIssue(id, n))
		}
	}
	return snap, found, nil
}

func (s *snapshot) has(id int) bool {
	_, ok := s.dests[id]
	return ok
}

// failed reports whether key could not be opened. Destinations into such
// partitions cannot be checked and are not reported as dangling.
func (v *Validator) failed(report *domain.ValidationReport, key domain.PartitionKey) bool {
	for _, f := range report.Failures {
		if f.Partition == key {
			return true
		}
	}
	return false
}
