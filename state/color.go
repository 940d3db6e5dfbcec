// Package state implements the monotonic color-state machine, the
// coarser visual-state machine, and the Gray->White decision-policy
// gate (spec §4.G). All transitions use max() under the defined
// ordering and never retreat.
package state

// ColorState is the user-visible coverage state, S0..S5 mapped to
// black..original. Unknown is unordered and treated as below black.
type ColorState uint8

const (
	ColorUnknown ColorState = iota
	ColorBlack              // S0
	ColorDarkGray           // S1 / S2 (spec preserves the source's two
	// adjacent bands that both map to darkGray — see DESIGN.md Open
	// Question decision)
	ColorLightGray // S3
	ColorWhite     // S4
	ColorOriginal  // S5
)

func (c ColorState) String() string {
	switch c {
	case ColorBlack:
		return "black"
	case ColorDarkGray:
		return "darkGray"
	case ColorLightGray:
		return "lightGray"
	case ColorWhite:
		return "white"
	case ColorOriginal:
		return "original"
	default:
		return "unknown"
	}
}

// rank gives ColorState its total order for monotonicity comparisons.
// Unknown ranks below ColorBlack per spec §3.
func (c ColorState) rank() int {
	if c == ColorUnknown {
		return -1
	}
	return int(c)
}

// maxColor returns the higher-ranked of a and b.
func maxColor(a, b ColorState) ColorState {
	if a.rank() >= b.rank() {
		return a
	}
	return b
}

// ColorThresholds holds the coverage/soft-evidence breakpoints from
// spec §4.G step 1.
type ColorThresholds struct {
	OriginalCoverage float64 // 0.88
	OriginalSoft     float64 // 0.75
	WhiteCoverage    float64 // 0.75
	LightGrayCoverage float64 // 0.50
	DarkGrayCoverage  float64 // 0.10
}

// DefaultColorThresholds returns the spec-literal breakpoints.
func DefaultColorThresholds() ColorThresholds {
	return ColorThresholds{
		OriginalCoverage:  0.88,
		OriginalSoft:      0.75,
		WhiteCoverage:     0.75,
		LightGrayCoverage: 0.50,
		DarkGrayCoverage:  0.10,
	}
}

// candidate computes the unclamped candidate color state from coverage
// and soft evidence per spec §4.G step 1.
func candidate(coverage, soft float64, th ColorThresholds) ColorState {
	switch {
	case coverage >= th.OriginalCoverage && soft >= th.OriginalSoft:
		return ColorOriginal
	case coverage >= th.WhiteCoverage:
		return ColorWhite
	case coverage >= th.LightGrayCoverage:
		return ColorLightGray
	case coverage >= th.DarkGrayCoverage:
		return ColorDarkGray
	default:
		return ColorBlack
	}
}

// ColorMachine is a monotonic color-state machine: Evaluate() never
// returns a state ranked below the machine's current state.
type ColorMachine struct {
	current    ColorState
	thresholds ColorThresholds
}

// NewColorMachine constructs a machine starting at ColorBlack.
func NewColorMachine(th ColorThresholds) *ColorMachine {
	return &ColorMachine{current: ColorBlack, thresholds: th}
}

// Evaluate computes the next state from (coverage, soft) and applies
// the monotonicity discipline: new = max(current, candidate).
func (m *ColorMachine) Evaluate(coverage, soft float64) ColorState {
	cand := candidate(coverage, soft, m.thresholds)
	m.current = maxColor(m.current, cand)
	return m.current
}

// Current returns the machine's current state without evaluating.
func (m *ColorMachine) Current() ColorState { return m.current }
