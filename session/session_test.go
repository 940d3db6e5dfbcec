package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/luxfi/scenekernel/admission"
	"github.com/luxfi/scenekernel/clock"
	"github.com/luxfi/scenekernel/config"
	"github.com/luxfi/scenekernel/frame"
	"github.com/luxfi/scenekernel/fusion"
	"github.com/luxfi/scenekernel/grid"
	"github.com/luxfi/scenekernel/q16"
	"github.com/luxfi/scenekernel/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func admissionTestInput(t *testing.T) admission.Input {
	t.Helper()
	id, err := uuid.Parse("550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, err)
	return admission.Input{
		LayoutVersion:     admission.DefaultLayoutVersion,
		CandidateID:       id,
		PolicyHash:        0x1,
		SessionStableID:   0x2,
		CandidateStableID: 0x3,
		ValueScore:        10,
		PerFlowCounters:   []uint16{1},
		FlowBucketCount:   1,
		SchemaVersion:     1,
	}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	clk := clock.Must()
	return New("test-session", config.Default(), clk, nil, prometheus.NewRegistry())
}

func TestProcessFrameAdvancesFrameID(t *testing.T) {
	s := newTestSession(t)
	res, err := s.ProcessFrame("thread-a", FrameInput{Coverage: 0.05, TimestampMS: 1})
	require.NoError(t, err)
	require.Equal(t, uint64(1), res.FrameID)
	require.Equal(t, uint64(1), s.LastFrameID())

	res2, err := s.ProcessFrame("thread-a", FrameInput{Coverage: 0.05, TimestampMS: 2})
	require.NoError(t, err)
	require.Equal(t, uint64(2), res2.FrameID)
}

func TestProcessFrameCrossThreadFails(t *testing.T) {
	s := newTestSession(t)
	_, err := s.ProcessFrame("thread-a", FrameInput{Coverage: 0.05})
	require.NoError(t, err)

	// config.Default() is strict, so the thread verifier panics.
	require.PanicsWithError(t, frame.ErrCrossFrameLeak.Error(), func() {
		_, _ = s.ProcessFrame("thread-b", FrameInput{Coverage: 0.05})
	})
}

func TestColorStateMonotonicAcrossFrames(t *testing.T) {
	s := newTestSession(t)

	res1, err := s.ProcessFrame("t", FrameInput{Coverage: 0.26, TimestampMS: 1})
	require.NoError(t, err)
	require.Equal(t, state.ColorDarkGray, res1.Color)

	res2, err := s.ProcessFrame("t", FrameInput{Coverage: 0.05, TimestampMS: 2})
	require.NoError(t, err)
	require.Equal(t, state.ColorDarkGray, res2.Color) // never retreats

	res3, err := s.ProcessFrame("t", FrameInput{Coverage: 0.90, SoftEvidence: 0.80, TimestampMS: 3})
	require.NoError(t, err)
	require.Equal(t, state.ColorOriginal, res3.Color)
}

func TestProvenanceRecordedOnColorChange(t *testing.T) {
	s := newTestSession(t)
	res, err := s.ProcessFrame("t", FrameInput{Coverage: 0.26, TimestampMS: 1})
	require.NoError(t, err)
	require.NotEmpty(t, res.ProvenanceHash)
	require.NoError(t, s.VerifyProvenance())

	res2, err := s.ProcessFrame("t", FrameInput{Coverage: 0.27, TimestampMS: 2})
	require.NoError(t, err)
	require.Empty(t, res2.ProvenanceHash) // still darkGray, no transition
}

func TestMerkleRootGrowsEveryFrame(t *testing.T) {
	s := newTestSession(t)
	res1, err := s.ProcessFrame("t", FrameInput{Coverage: 0.1, TimestampMS: 1})
	require.NoError(t, err)
	res2, err := s.ProcessFrame("t", FrameInput{Coverage: 0.1, TimestampMS: 2})
	require.NoError(t, err)
	require.NotEqual(t, res1.MerkleRoot, res2.MerkleRoot)
}

func TestFuseGridOpsCombinesMassAndRecordsConflict(t *testing.T) {
	s := newTestSession(t)
	occupiedCell := grid.NewCell("p1", [3]int32{0, 0, 0}, nil, fusion.Mass{Occupied: 1}, grid.L0, 0, 0)
	key := occupiedCell.Key()

	_, err := s.ProcessFrame("t", FrameInput{
		Coverage:    0.05,
		TimestampMS: 1,
		GridOps:     []grid.Op{{Kind: grid.OpInsert, Key: key, Cell: occupiedCell}},
	})
	require.NoError(t, err)

	freeCell := grid.NewCell("p1", [3]int32{0, 0, 0}, nil, fusion.Mass{Free: 1}, grid.L0, 0, 1)
	_, err = s.ProcessFrame("t", FrameInput{
		Coverage:    0.05,
		TimestampMS: 2,
		GridOps:     []grid.Op{{Kind: grid.OpUpdate, Key: key, Cell: freeCell}},
	})
	require.NoError(t, err)

	got, ok := s.grid.Get(key)
	require.True(t, ok)
	require.Equal(t, fusion.Vacuous, got.DSMass) // total conflict falls back to vacuous
	require.Equal(t, float64(1), testutil.ToFloat64(s.metrics.TotalConflictEvents))
}

func TestProcessFramePatchLogitsProducesWeightsAndReportsOverflow(t *testing.T) {
	s := newTestSession(t)
	res, err := s.ProcessFrame("t", FrameInput{
		Coverage:    0.05,
		TimestampMS: 1,
		PatchLogits: []q16.Scalar{q16.Max, 0, q16.Min},
	})
	require.NoError(t, err)

	var total int64
	for _, w := range res.PatchWeights {
		total += int64(w)
	}
	require.Equal(t, int64(65536), total)
	require.Greater(t, testutil.ToFloat64(s.metrics.OverflowEvents.WithLabelValues(q16.Tier1.String())), float64(0))
}

func TestEvaluateAdmissionIdempotentReplay(t *testing.T) {
	s := newTestSession(t)
	in := admissionTestInput(t)

	d1, replayed1, err := s.EvaluateAdmission("req-1", in, admission.ClassificationAccepted, 7)
	require.NoError(t, err)
	require.False(t, replayed1)

	d2, replayed2, err := s.EvaluateAdmission("req-1", in, admission.ClassificationAccepted, 7)
	require.NoError(t, err)
	require.True(t, replayed2)
	require.Equal(t, d1.DecisionHashHex, d2.DecisionHashHex)

	require.Equal(t, float64(1), testutil.ToFloat64(s.metrics.AdmissionDecisions.WithLabelValues(string(admission.ClassificationAccepted))))
}
