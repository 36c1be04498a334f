package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports"
)

// Metrics holds the Portico collectors.
type Metrics struct {
	Transitions        *prometheus.CounterVec
	TransitionDuration *prometheus.HistogramVec
	Phase              *prometheus.GaugeVec
	PartitionsVisited  prometheus.Counter
	ValidationIssues   *prometheus.GaugeVec
	ValidationFailures prometheus.Gauge
	ValidationClean    prometheus.Gauge

	reg prometheus.Registerer
}

var phases = []domain.TransitionState{
	domain.StateIdle,
	domain.StateUnloadingLoading,
	domain.StateAwaitingLoadThreshold,
	domain.StateAwaitingActivationGate,
	domain.StateActivating,
	domain.StateResolvingDestination,
	domain.StateNotifyingArrival,
	domain.StateAborted,
}

var issueKinds = []domain.IssueKind{
	domain.IssueDuplicateID,
	domain.IssueSelfLoop,
	domain.IssueDanglingDestination,
	domain.IssueDisconnected,
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portico_transitions_total",
				Help: "Total number of finished transitions by destination and result",
			},
			[]string{"destination", "result"},
		),
		TransitionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portico_transition_duration_seconds",
				Help:    "Duration of transitions from acceptance to finish",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"destination"},
		),
		Phase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "portico_transition_phase",
				Help: "1 for the phase the transition controller is currently in",
			},
			[]string{"state"},
		),
		PartitionsVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portico_validation_partitions_visited_total",
			Help: "Total number of partitions opened by the validator",
		}),
		ValidationIssues: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "portico_validation_issues",
				Help: "Issues found by the last validation run, by kind",
			},
			[]string{"kind"},
		),
		ValidationFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portico_validation_failures",
			Help: "Partitions the last validation run could not process",
		}),
		ValidationClean: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portico_validation_clean",
			Help: "1 if the last validation run found nothing to fix",
		}),
		reg: reg,
	}

	reg.MustRegister(
		m.Transitions,
		m.TransitionDuration,
		m.Phase,
		m.PartitionsVisited,
		m.ValidationIssues,
		m.ValidationFailures,
		m.ValidationClean,
	)
	m.setPhase(domain.StateIdle)
	return m
}

// ObserveCache exports the counters of a portal cache.
func (m *Metrics) ObserveCache(c ports.PortalLookup) {
	m.reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "portico_cache_hits_total",
			Help: "Portal lookups served by the cache",
		}, func() float64 { return float64(c.Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "portico_cache_misses_total",
			Help: "Portal lookups that found nothing after a rebuild",
		}, func() float64 { return float64(c.Stats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "portico_cache_rebuilds_total",
			Help: "Wholesale cache rebuilds",
		}, func() float64 { return float64(c.Stats().Rebuilds) }),
	)
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseChange: func(_ context.Context, e *domain.TransitionEvent) {
			m.setPhase(e.State)
		},
		OnTransitionFinish: func(_ context.Context, e *domain.TransitionEvent) {
			dest := string(e.Request.Destination)
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.Transitions.WithLabelValues(dest, result).Inc()
			m.TransitionDuration.WithLabelValues(dest).Observe(e.Duration.Seconds())
			m.setPhase(domain.StateIdle)
		},
		OnPartitionVisit: func(context.Context, *domain.PartitionVisitEvent) {
			m.PartitionsVisited.Inc()
		},
		OnValidationFinish: func(_ context.Context, e *domain.ValidationEvent) {
			counts := e.Report.CountByKind()
			for _, kind := range issueKinds {
				m.ValidationIssues.WithLabelValues(string(kind)).Set(float64(counts[kind]))
			}
			m.ValidationFailures.Set(float64(len(e.Report.Failures)))
			if e.Report.Clean {
				m.ValidationClean.Set(1)
			} else {
				m.ValidationClean.Set(0)
			}
		},
	}
}

func (m *Metrics) setPhase(current domain.TransitionState) {
	for _, s := range phases {
		v := 0.0
		if s == current {
			v = 1
		}
		m.Phase.WithLabelValues(string(s)).Set(v)
	}
}
