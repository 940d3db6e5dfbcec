package smoother

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvalidLatchesAfterK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConsecutiveInvalid = 3
	cfg.WorstCaseFallback = -1
	s := New(cfg)

	s.Update(0.5)
	out := s.Update(math.NaN())
	require.False(t, s.Latched())
	require.Equal(t, 0.5, out) // falls back to previous output

	s.Update(math.NaN())
	out = s.Update(math.Inf(1))
	require.True(t, s.Latched())
	require.Equal(t, -1.0, out)
}

func TestStableWithinJitterBand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JitterBand = 0.1
	s := New(cfg)

	s.Update(0.5)
	out := s.Update(0.51)
	require.InDelta(t, medianOf([]float64{0.5, 0.51}), out, 1e-9)
}

func TestSuspiciousJumpDamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JitterBand = 0.01
	cfg.AntiBoostFactor = 0.1
	s := New(cfg)

	s.Update(0.1)
	out := s.Update(0.9) // big jump

	require.Less(t, out, 0.9)
	require.Greater(t, out, 0.1)
}

func TestDegradeAppliesOnNegativeDelta(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JitterBand = 0.01
	cfg.DegradeFactor = 1.0
	s := New(cfg)

	s.Update(0.8)
	out := s.Update(0.2)
	require.InDelta(t, 0.2, out, 1e-9) // degrade factor 1.0 == full immediate drop
}

func TestResetAfterValidInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConsecutiveInvalid = 2
	s := New(cfg)

	s.Update(math.NaN())
	s.Update(0.3) // valid resets consecutive-invalid counter
	require.False(t, s.Latched())
	s.Update(math.NaN())
	require.False(t, s.Latched()) // only one consecutive invalid so far
}
