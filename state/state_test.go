package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColorMachineNeverRetreats(t *testing.T) {
	m := NewColorMachine(DefaultColorThresholds())

	s1 := m.Evaluate(0.26, 0)
	require.Equal(t, ColorDarkGray, s1)

	s2 := m.Evaluate(0.05, 0) // low coverage must not retreat
	require.Equal(t, ColorDarkGray, s2)

	s3 := m.Evaluate(0.90, 0.80)
	require.Equal(t, ColorOriginal, s3)

	require.GreaterOrEqual(t, int(s2), int(s1))
	require.GreaterOrEqual(t, int(s3), int(s2))
}

func TestColorMachineBands(t *testing.T) {
	th := DefaultColorThresholds()
	tests := []struct {
		coverage, soft float64
		want           ColorState
	}{
		{0.0, 0.0, ColorBlack},
		{0.10, 0.0, ColorDarkGray},
		{0.50, 0.0, ColorLightGray},
		{0.75, 0.0, ColorWhite},
		{0.88, 0.75, ColorOriginal},
		{0.88, 0.5, ColorWhite}, // coverage high but soft too low for original
	}
	for _, tt := range tests {
		m := NewColorMachine(th)
		got := m.Evaluate(tt.coverage, tt.soft)
		require.Equal(t, tt.want, got)
	}
}

func TestVisualMachineNeverRetreats(t *testing.T) {
	m := NewVisualMachine()
	require.Equal(t, VisualDarkGray, m.Evaluate(VisualDarkGray))
	require.Equal(t, VisualDarkGray, m.Evaluate(VisualBlack))
	require.Equal(t, VisualWhite, m.Evaluate(VisualWhite))
}

func TestGateOnlyFullTierCrossesGrayToWhite(t *testing.T) {
	th := DefaultGateThresholds()
	goodInputs := GateInputs{Tier: TierFull, BrightnessConfidence: 0.9, LaplacianConfidence: 0.9, StabilityVariance: 0.05}

	r := EvaluateGate(Transition{From: ColorDarkGray, To: ColorWhite}, goodInputs, th)
	require.True(t, r.Allowed)

	reduced := goodInputs
	reduced.Tier = TierReduced
	r = EvaluateGate(Transition{From: ColorDarkGray, To: ColorWhite}, reduced, th)
	require.False(t, r.Allowed)

	lowConf := goodInputs
	lowConf.BrightnessConfidence = 0.5
	r = EvaluateGate(Transition{From: ColorLightGray, To: ColorWhite}, lowConf, th)
	require.False(t, r.Allowed)

	unstable := goodInputs
	unstable.StabilityVariance = 0.5
	r = EvaluateGate(Transition{From: ColorLightGray, To: ColorWhite}, unstable, th)
	require.False(t, r.Allowed)
}

func TestGateOtherForwardTransitionsUnconditional(t *testing.T) {
	th := DefaultGateThresholds()
	r := EvaluateGate(Transition{From: ColorBlack, To: ColorDarkGray}, GateInputs{}, th)
	require.True(t, r.Allowed)

	r = EvaluateGate(Transition{From: ColorWhite, To: ColorOriginal}, GateInputs{}, th)
	require.True(t, r.Allowed)
}

func TestGateReverseForbidden(t *testing.T) {
	th := DefaultGateThresholds()
	r := EvaluateGate(Transition{From: ColorWhite, To: ColorBlack}, GateInputs{Tier: TierFull}, th)
	require.False(t, r.Allowed)
}

func TestFromColorMapping(t *testing.T) {
	require.Equal(t, VisualBlack, FromColor(ColorBlack))
	require.Equal(t, VisualDarkGray, FromColor(ColorDarkGray))
	require.Equal(t, VisualDarkGray, FromColor(ColorLightGray))
	require.Equal(t, VisualWhite, FromColor(ColorWhite))
	require.Equal(t, VisualWhite, FromColor(ColorOriginal))
}
