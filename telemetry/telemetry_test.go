package telemetry

import (
	"testing"

	"github.com/luxfi/scenekernel/q16"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestOverflowReporterTier0NonStrict(t *testing.T) {
	r := NewOverflowReporter(nil, false)
	require.NotPanics(t, func() {
		r.Report(q16.OverflowEvent{Field: "gate_quality", Operation: "mul", Tier: q16.Tier0})
	})
}

func TestOverflowReporterTier0StrictPanics(t *testing.T) {
	r := NewOverflowReporter(nil, true)
	require.Panics(t, func() {
		r.Report(q16.OverflowEvent{Field: "gate_quality", Operation: "mul", Tier: q16.Tier0})
	})
}

func TestOverflowReporterTier2Silent(t *testing.T) {
	r := NewOverflowReporter(nil, false)
	require.NotPanics(t, func() {
		r.Report(q16.OverflowEvent{Field: "diagnostic", Tier: q16.Tier2})
	})
}

func TestMetricsRegistersCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.TotalConflictEvents.Inc()
	require.NotNil(t, m.OverflowEvents)
}

func TestLeakLoggerRecordsCount(t *testing.T) {
	l := NewLeakLogger(nil)
	require.Equal(t, 0, l.Count())
	l.Record(5, 6, "assert_in_frame")
	require.Equal(t, 1, l.Count())
	l.Reset()
	require.Equal(t, 0, l.Count())
}
