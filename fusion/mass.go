// Package fusion implements Dempster-Shafer evidence combination and the
// split gate/soft evidence ledger described in spec §4.E.
package fusion

import (
	"errors"
	"math"
)

// epsilon is the tolerance used throughout this package for mass-sum
// and conflict-near-one comparisons.
const epsilon = 1e-6

// ErrTotalConflict names the near-total-conflict condition
// (K >= 1-epsilon). Combine does not return it; Combine reports the
// condition through CombineResult.TotalConflict instead.
var ErrTotalConflict = errors.New("fusion: total conflict")

// Mass is a Dempster-Shafer basic belief assignment over
// {Occupied, Free, Unknown}. Occupied+Free+Unknown should sum to 1
// within epsilon; constructors renormalize when it doesn't.
type Mass struct {
	Occupied float64
	Free     float64
	Unknown  float64
}

// Vacuous is the mass function assigning all belief to Unknown.
var Vacuous = Mass{Occupied: 0, Free: 0, Unknown: 1}

// NewMass constructs a Mass, renormalizing if the three components do
// not sum to 1 within epsilon (spec §3 GridCell invariant).
func NewMass(occupied, free, unknown float64) Mass {
	m := Mass{Occupied: occupied, Free: free, Unknown: unknown}
	sum := occupied + free + unknown
	if math.Abs(sum-1.0) > epsilon && sum > 0 {
		m.Occupied /= sum
		m.Free /= sum
		m.Unknown /= sum
	}
	return m
}

// Sum returns Occupied+Free+Unknown.
func (m Mass) Sum() float64 {
	return m.Occupied + m.Free + m.Unknown
}

// CombineResult is the outcome of combining two mass functions: the
// fused mass, the Dempster conflict scalar K, and whether the
// combination hit total conflict and fell back to Vacuous.
type CombineResult struct {
	Mass         Mass
	Conflict     float64
	TotalConflict bool
}

// Combine fuses m1 and m2 via the Dempster rule over the focal elements
// {Occupied}, {Free}, {Unknown}=Theta. If the resulting conflict K is
// >= 1-epsilon, Combine returns the Vacuous mass with TotalConflict set
// rather than dividing by a near-zero normalizer.
//
// Combine is commutative (Combine(a,b) == Combine(b,a) within epsilon)
// by construction: every term below is symmetric in m1/m2.
func Combine(m1, m2 Mass) CombineResult {
	// Conflict mass: pairs of disjoint singleton focal elements voting
	// for different outcomes. {Occupied} vs {Free} is the only
	// disjoint singleton pair; Unknown (Theta) never conflicts with
	// anything.
	k := m1.Occupied*m2.Free + m1.Free*m2.Occupied

	if k >= 1-epsilon {
		return CombineResult{Mass: Vacuous, Conflict: k, TotalConflict: true}
	}

	norm := 1.0 / (1.0 - k)
	occ := (m1.Occupied*m2.Occupied + m1.Occupied*m2.Unknown + m1.Unknown*m2.Occupied) * norm
	free := (m1.Free*m2.Free + m1.Free*m2.Unknown + m1.Unknown*m2.Free) * norm
	unk := (m1.Unknown * m2.Unknown) * norm

	return CombineResult{
		Mass:     NewMass(occ, free, unk),
		Conflict: k,
	}
}

// Discount shifts (1-r) of m's reliability onto Unknown. r=1 is the
// identity transform (discount(m,1) == m).
func Discount(m Mass, r float64) Mass {
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return Mass{
		Occupied: m.Occupied * r,
		Free:     m.Free * r,
		Unknown:  m.Unknown*r + (1 - r),
	}
}
