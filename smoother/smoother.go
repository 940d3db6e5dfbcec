// Package smoother implements the anti-boost smoother (spec §4.F): an
// asymmetric filter that advances slowly on suspicious jumps and
// degrades immediately, with a median-window core and a K-invalid
// fallback latch.
package smoother

import (
	"math"
	"sort"
)

// Config holds the smoother's tunables, all with spec-literal defaults.
type Config struct {
	WindowSize           int
	MaxConsecutiveInvalid int
	JitterBand           float64
	AntiBoostFactor      float64
	NormalImproveFactor  float64
	DegradeFactor        float64
	WorstCaseFallback    float64
}

// DefaultConfig returns the spec §4.F defaults (window size 5, degrade
// factor 1.0).
func DefaultConfig() Config {
	return Config{
		WindowSize:            5,
		MaxConsecutiveInvalid: 3,
		JitterBand:            0.02,
		AntiBoostFactor:       0.1,
		NormalImproveFactor:   0.5,
		DegradeFactor:         1.0,
		WorstCaseFallback:     0.0,
	}
}

// Smoother holds the sliding window and latch state across calls.
type Smoother struct {
	cfg Config

	window            []float64
	prevOutput        float64
	havePrevOutput    bool
	consecutiveInvalid int
	latched           bool
}

// New constructs a Smoother with the given configuration.
func New(cfg Config) *Smoother {
	return &Smoother{
		cfg:    cfg,
		window: make([]float64, 0, cfg.WindowSize),
	}
}

// Update feeds one new value through the smoother and returns the
// smoothed output (spec §4.F transition table).
func (s *Smoother) Update(value float64) float64 {
	if isInvalid(value) {
		s.consecutiveInvalid++
		if s.consecutiveInvalid >= s.cfg.MaxConsecutiveInvalid {
			s.latched = true
			s.prevOutput = s.cfg.WorstCaseFallback
			s.havePrevOutput = true
			return s.cfg.WorstCaseFallback
		}
		if s.latched {
			return s.cfg.WorstCaseFallback
		}
		if s.havePrevOutput {
			return s.prevOutput
		}
		return s.cfg.WorstCaseFallback
	}

	s.consecutiveInvalid = 0
	s.latched = false
	s.pushWindow(value)
	m := medianOf(s.window)

	prev := m
	if s.havePrevOutput {
		prev = s.prevOutput
	}

	delta := value - prev
	var out float64
	switch {
	case math.Abs(delta) < s.cfg.JitterBand:
		out = m
	case delta > 3*s.cfg.JitterBand:
		out = prev + delta*s.cfg.AntiBoostFactor
	case delta > 0:
		out = prev + delta*s.cfg.NormalImproveFactor
	default: // delta < 0 (delta == 0 handled by the jitter band above
		// unless JitterBand is 0, in which case degrade applies, which
		// is the conservative choice)
		out = prev + delta*s.cfg.DegradeFactor
	}

	s.prevOutput = out
	s.havePrevOutput = true
	return out
}

func (s *Smoother) pushWindow(v float64) {
	if len(s.window) >= s.cfg.WindowSize {
		s.window = s.window[1:]
	}
	s.window = append(s.window, v)
}

func isInvalid(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Latched reports whether the smoother has latched to WorstCaseFallback
// due to K consecutive invalid inputs.
func (s *Smoother) Latched() bool { return s.latched }
