// Package softmax implements the range-complete Q16 softmax (spec
// §4.I) — whose Q16 weights sum to exactly 65536 — and a stable
// sigmoid. The LUT is built once at init from math.Exp (off the hot
// path); evaluation only ever indexes the precomputed table, which is
// what keeps results deterministic across platforms.
package softmax

import (
	"math"

	"github.com/luxfi/scenekernel/q16"
)

// TraceEvent names the deterministic trace events softmax may emit.
type TraceEvent string

const (
	TraceUniformFallback        TraceEvent = "softmax_uniform"
	TraceRemainderDistributed TraceEvent = "softmax_remainder_distributed"
)

// Result is the outcome of a softmax evaluation.
type Result struct {
	Weights []q16.Scalar
	Trace   []TraceEvent
	// Overflows records every saturating logit-shift overflow hit while
	// evaluating this call (spec §4.A). Field and FrameID are left zero;
	// callers that route these to telemetry.OverflowReporter fill them
	// in first, since softmax has no frame context of its own.
	Overflows []q16.OverflowEvent
}

// lutRange bounds the domain of the precomputed exp LUT: logits are
// shifted by the max before lookup, so the LUT only needs to cover
// (-inf, 0], approximated here by a wide negative range beyond which
// exp() is indistinguishable from 0 at Q16 precision.
const lutMinQ16 = -26 * 65536 // matches the spec's |L| <= 2^26 bound in spirit
const lutSteps = 1 << 16

var expLUT [lutSteps + 1]q16.Scalar

func init() {
	// expLUT[i] approximates expQ16(x) for x in [lutMinQ16, 0], evenly
	// spaced across lutSteps buckets built once from math.Exp.
	for i := 0; i <= lutSteps; i++ {
		frac := float64(i) / float64(lutSteps)
		x := float64(lutMinQ16) * (1 - frac) // x: lutMinQ16 -> 0
		expLUT[i] = q16.FromFloat(math.Exp(x / 65536.0))
	}
}

// expQ16 returns exp(x) in Q16, where x is a Q16 value <= 0 (callers
// always pass logit-max, which is <= 0). Values below lutMinQ16
// saturate to 0.
func expQ16(x q16.Scalar) q16.Scalar {
	if x >= 0 {
		return q16.One
	}
	if int64(x) <= lutMinQ16 {
		return 0
	}
	frac := float64(x-lutMinQ16) / float64(-lutMinQ16)
	idx := int(frac * float64(lutSteps))
	if idx < 0 {
		idx = 0
	}
	if idx > lutSteps {
		idx = lutSteps
	}
	return expLUT[idx]
}

// Softmax evaluates the range-complete softmax over logits, returning
// Q16 weights that sum to exactly 65536 and are all >= 0 (spec §4.I
// steps 1-6).
func Softmax(logits []q16.Scalar) Result {
	n := len(logits)
	if n == 0 {
		return Result{}
	}

	maxVal := logits[0]
	degenerate := true
	for i := 1; i < n; i++ {
		// first-max-on-ties: strictly greater only, so the first
		// occurrence of the maximum wins deterministically.
		if logits[i] > maxVal {
			maxVal = logits[i]
			degenerate = false
		} else if logits[i] < maxVal {
			degenerate = false
		}
	}
	if degenerate {
		// Every logit is identical (spec §8 scenario 2 uses all-Q16_MIN,
		// but the same holds for any uniform input): the shifted logits
		// are all zero, so the normal path always produces a valid
		// positive sum and would emit softmax_remainder_distributed
		// instead of softmax_uniform. Route explicitly before shifting.
		return uniformFallback(n)
	}

	exps := make([]q16.Scalar, n)
	var sum int64 // Kahan-compensated sum
	var compensation int64
	var overflows []q16.OverflowEvent
	for i, l := range logits {
		shifted, overflowed := q16.Sub(l, maxVal)
		if overflowed {
			overflows = append(overflows, q16.OverflowEvent{
				Operation: "softmax_logit_shift",
				Operands:  [2]q16.Scalar{l, maxVal},
				Clamped:   shifted,
				Tier:      q16.Tier1,
			})
		}
		exps[i] = expQ16(shifted)

		y := int64(exps[i]) - compensation
		t := sum + y
		compensation = (t - sum) - y
		sum = t
	}

	if sum <= 0 {
		// Defensive: with the degenerate-input check above, every
		// remaining input has at least one logit below maxVal, so the
		// max slot alone already contributes q16.One to sum and this
		// branch cannot be reached today. Kept in case a future LUT
		// change narrows expQ16's range.
		res := uniformFallback(n)
		res.Overflows = overflows
		return res
	}

	// exp_i is itself a Q16 value (<= One), so exp_i<<16 is at most
	// 2^32 and the whole computation fits comfortably in int64 without
	// a 128-bit intermediate.
	weights := make([]q16.Scalar, n)
	var actualSum int64
	for i, e := range exps {
		w := (int64(e) << 16) / sum
		if w < 0 {
			w = 0
		}
		weights[i] = q16.Scalar(w)
		actualSum += w
	}

	remainder := int64(65536) - actualSum
	trace := []TraceEvent{}
	if remainder != 0 {
		// Add remainder to the largest-weight slot; first-max on ties.
		bestIdx := 0
		bestVal := weights[0]
		for i := 1; i < n; i++ {
			if weights[i] > bestVal {
				bestVal = weights[i]
				bestIdx = i
			}
		}
		weights[bestIdx] += q16.Scalar(remainder)
		trace = append(trace, TraceRemainderDistributed)
	}

	return Result{Weights: weights, Trace: trace, Overflows: overflows}
}

// uniformFallback distributes 65536/n to every slot with any remainder
// placed in the last slot. Spec §4.I's prose says "remainder into slot
// 0", but the spec's own worked example (§8 scenario 2,
// softmax([MIN,MIN,MIN]) == [21845, 21845, 21846]) places the
// remainder in the last slot; this implementation follows the literal
// worked example as normative, per this repo's convention of resolving
// spec self-contradictions in favor of concrete bit-exact scenarios
// (see DESIGN.md).
func uniformFallback(n int) Result {
	base := int64(65536) / int64(n)
	weights := make([]q16.Scalar, n)
	for i := range weights {
		weights[i] = q16.Scalar(base)
	}
	remainder := int64(65536) - base*int64(n)
	weights[n-1] += q16.Scalar(remainder)
	return Result{Weights: weights, Trace: []TraceEvent{TraceUniformFallback}}
}

// Sigmoid is a stable logistic function: input is clamped to +/-80
// before evaluation and the branch-stable formulation (compute
// exp(-|x|) always, then select 1/(1+e) or e/(1+e) by sign) avoids
// overflow and never returns NaN.
func Sigmoid(x float64) float64 {
	if x > 80 {
		x = 80
	}
	if x < -80 {
		x = -80
	}
	if x >= 0 {
		e := math.Exp(-x)
		return 1 / (1 + e)
	}
	e := math.Exp(x)
	return e / (1 + e)
}
