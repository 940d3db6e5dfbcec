package state

// FPSTier identifies the capture tier a frame was produced under. Only
// TierFull may cross the Gray->White gate (spec §4.G).
type FPSTier uint8

const (
	TierFull FPSTier = iota
	TierReduced
	TierMinimal
)

// Transition identifies a (from, to) color pair the gate is being
// asked to authorize.
type Transition struct {
	From ColorState
	To   ColorState
}

// isGrayToWhite reports whether a transition crosses the gray bands
// into white (the only transition the gate restricts).
func (t Transition) isGrayToWhite() bool {
	grayFrom := t.From == ColorDarkGray || t.From == ColorLightGray
	return grayFrom && t.To == ColorWhite
}

// GateInputs are the explicit, ambient-state-free inputs to the
// decision-policy gate (spec §4.G: "must not read ambient state").
type GateInputs struct {
	Tier                 FPSTier
	BrightnessConfidence float64
	LaplacianConfidence  float64
	StabilityVariance    float64 // variance over a 300ms monotonic window
}

// GateThresholds holds the Full-tier gate constants (spec §4.G).
type GateThresholds struct {
	FullConfidenceMin float64 // 0.80
	FullStabilityMax  float64 // 0.15
}

// DefaultGateThresholds returns the spec-literal constants.
func DefaultGateThresholds() GateThresholds {
	return GateThresholds{FullConfidenceMin: 0.80, FullStabilityMax: 0.15}
}

// GateResult reports the gate's verdict and, when blocked, why.
type GateResult struct {
	Allowed bool
	Reason  string
}

// EvaluateGate is the single source of truth for whether a transition
// is authorized. Forward transitions other than gray->white are always
// allowed; gray->white requires TierFull, both confidences above the
// Full-tier threshold, and a stability variance at or below the
// Full-tier maximum. Reverse transitions are always forbidden. The
// function takes only explicit inputs — it never reads ambient state.
func EvaluateGate(t Transition, in GateInputs, th GateThresholds) GateResult {
	if t.To.rank() < t.From.rank() {
		return GateResult{Allowed: false, Reason: "reverse transition forbidden"}
	}
	if t.To.rank() == t.From.rank() {
		return GateResult{Allowed: true}
	}
	if !t.isGrayToWhite() {
		return GateResult{Allowed: true}
	}

	if in.Tier != TierFull {
		return GateResult{Allowed: false, Reason: "only the full fps tier may cross gray to white"}
	}
	if in.BrightnessConfidence <= th.FullConfidenceMin || in.LaplacianConfidence <= th.FullConfidenceMin {
		return GateResult{Allowed: false, Reason: "brightness/laplacian confidence below full-tier threshold"}
	}
	if in.StabilityVariance > th.FullStabilityMax {
		return GateResult{Allowed: false, Reason: "stability variance exceeds full-tier maximum"}
	}
	return GateResult{Allowed: true}
}
