package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics wraps a prometheus.Registerer with the named counters this
// kernel exposes, adapted from the teacher's metrics/metrics.go (a bare
// Registerer wrapper) into one with concrete, spec-grounded counters.
type Metrics struct {
	Registry prometheus.Registerer

	OverflowEvents      *prometheus.CounterVec // by tier
	TotalConflictEvents prometheus.Counter
	SoftmaxFallbacks    prometheus.Counter
	GridEvictions       prometheus.Counter
	StateTransitions    *prometheus.CounterVec // by to-state
	AdmissionDecisions  *prometheus.CounterVec // by classification
}

// NewMetrics constructs and registers all counters against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registry: reg,
		OverflowEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scenekernel",
			Name:      "overflow_events_total",
			Help:      "Count of arithmetic overflow events by tier.",
		}, []string{"tier"}),
		TotalConflictEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scenekernel",
			Name:      "dsmass_total_conflict_total",
			Help:      "Count of Dempster-Shafer combinations that hit total conflict.",
		}),
		SoftmaxFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scenekernel",
			Name:      "softmax_uniform_fallback_total",
			Help:      "Count of softmax evaluations that fell back to a uniform distribution.",
		}),
		GridEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scenekernel",
			Name:      "grid_evictions_total",
			Help:      "Count of cells evicted from the spatial grid for capacity.",
		}),
		StateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scenekernel",
			Name:      "color_state_transitions_total",
			Help:      "Count of color-state transitions by resulting state.",
		}, []string{"to_state"}),
		AdmissionDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scenekernel",
			Name:      "admission_decisions_total",
			Help:      "Count of admission decisions by classification.",
		}, []string{"classification"}),
	}

	for _, c := range []prometheus.Collector{
		m.OverflowEvents, m.TotalConflictEvents, m.SoftmaxFallbacks,
		m.GridEvictions, m.StateTransitions, m.AdmissionDecisions,
	} {
		_ = reg.Register(c)
	}
	return m
}
