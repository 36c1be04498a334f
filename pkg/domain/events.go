package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransitionStart  EventType = "transition_start"
	EventTransitionFinish EventType = "transition_finish"
	EventPhaseChange      EventType = "phase_change"
	EventPartitionVisit   EventType = "partition_visit"
	EventValidationFinish EventType = "validation_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// TransitionEvent describes the start, finish or a phase change of a transition.
type TransitionEvent struct {
	EventBase
	Request TransitionRequest `json:"request"`
	State   TransitionState   `json:"state"`
	// Duration is set on finish events.
	Duration time.Duration `json:"duration,omitempty"`
	// Err is set on finish events when the transition did not fully succeed.
	Err error `json:"-"`
}

// PartitionVisitEvent is emitted by the validator before each partition is opened.
type PartitionVisitEvent struct {
	EventBase
	Partition PartitionKey `json:"partition"`
	Index     int          `json:"index"`
	Total     int          `json:"total"`
}

// ValidationEvent is emitted when a validation run completes.
type ValidationEvent struct {
	EventBase
	Report   *ValidationReport `json:"report"`
	Duration time.Duration     `json:"duration"`
}

// LifecycleHooks defines callbacks for observability.
// Every field is optional.
type LifecycleHooks struct {
	OnTransitionStart  func(context.Context, *TransitionEvent)
	OnTransitionFinish func(context.Context, *TransitionEvent)
	OnPhaseChange      func(context.Context, *TransitionEvent)
	OnPartitionVisit   func(context.Context, *PartitionVisitEvent)
	OnValidationFinish func(context.Context, *ValidationEvent)
}

// MergeHooks combines several hook sets; each callback fans out in argument order.
func MergeHooks(all ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range all {
		merged.OnTransitionStart = chain(merged.OnTransitionStart, h.OnTransitionStart)
		merged.OnTransitionFinish = chain(merged.OnTransitionFinish, h.OnTransitionFinish)
		merged.OnPhaseChange = chain(merged.OnPhaseChange, h.OnPhaseChange)
		merged.OnPartitionVisit = chain(merged.OnPartitionVisit, h.OnPartitionVisit)
		merged.OnValidationFinish = chain(merged.OnValidationFinish, h.OnValidationFinish)
	}
	return merged
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
