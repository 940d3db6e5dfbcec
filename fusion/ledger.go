package fusion

import (
	"math"
	"sort"
)

// PatchEntry is one ledger row (spec §3 PatchEntry).
type PatchEntry struct {
	Evidence         float64
	LastUpdateMS     int64
	ObservationCount int64
	BestFrameID      uint64
	ErrorCount       int64
	ErrorStreak      int64
	LastGoodUpdateMS int64
}

// Observation is one incoming evidence sample for a patch (spec §4.E).
type Observation struct {
	PatchID     string
	GateQuality float64
	SoftQuality float64
	Verdict     float64 // verdict strength in [0,1], drives alpha
	FrameID     uint64
	TimestampMS int64
	IsError     bool
}

// SplitLedger holds the gate and soft ledgers. soft is written only
// when gate_quality exceeds SoftWriteRequiresGateMin (spec §3
// invariant).
type SplitLedger struct {
	Gate map[string]*PatchEntry
	Soft map[string]*PatchEntry

	// SoftWriteRequiresGateMin is the minimum gate quality required
	// before a soft-ledger write is permitted.
	SoftWriteRequiresGateMin float64
	// TauMS is the EMA decay time constant in milliseconds.
	TauMS float64
}

// NewSplitLedger constructs an empty ledger with the given tunables.
func NewSplitLedger(softWriteRequiresGateMin, tauMS float64) *SplitLedger {
	return &SplitLedger{
		Gate:                     make(map[string]*PatchEntry),
		Soft:                     make(map[string]*PatchEntry),
		SoftWriteRequiresGateMin: softWriteRequiresGateMin,
		TauMS:                    tauMS,
	}
}

// alpha returns the EMA blend weight for a sample of the given verdict
// strength: stronger verdicts push the ledger toward the new sample
// faster.
func alpha(verdict float64) float64 {
	const base = 0.1
	const maxAlpha = 0.9
	a := base + verdict*(maxAlpha-base)
	return math.Max(base, math.Min(maxAlpha, a))
}

// decay returns the EMA decay factor exp(-(t-last)/tau).
func decay(tauMS float64, last, now int64) float64 {
	if tauMS <= 0 {
		return 0
	}
	dt := float64(now - last)
	if dt < 0 {
		dt = 0
	}
	return math.Exp(-dt / tauMS)
}

func updateEntry(e *PatchEntry, quality float64, tauMS float64, obs Observation) {
	if e.LastUpdateMS != 0 || e.ObservationCount != 0 {
		d := decay(tauMS, e.LastUpdateMS, obs.TimestampMS)
		e.Evidence *= d
	}
	a := alpha(obs.Verdict)
	e.Evidence = e.Evidence*(1-a) + quality*a

	e.LastUpdateMS = obs.TimestampMS
	e.ObservationCount++
	e.BestFrameID = obs.FrameID
	if obs.IsError {
		e.ErrorCount++
		e.ErrorStreak++
	} else {
		e.ErrorStreak = 0
		e.LastGoodUpdateMS = obs.TimestampMS
	}
}

// Observe applies an observation to the ledger: gate is updated
// unconditionally; soft is updated only if gate_quality exceeds
// SoftWriteRequiresGateMin.
func (l *SplitLedger) Observe(obs Observation) {
	g, ok := l.Gate[obs.PatchID]
	if !ok {
		g = &PatchEntry{}
		l.Gate[obs.PatchID] = g
	}
	updateEntry(g, obs.GateQuality, l.TauMS, obs)

	if obs.GateQuality > l.SoftWriteRequiresGateMin {
		s, ok := l.Soft[obs.PatchID]
		if !ok {
			s = &PatchEntry{}
			l.Soft[obs.PatchID] = s
		}
		updateEntry(s, obs.SoftQuality, l.TauMS, obs)
	}
}

// Weights returns the dynamic gate/soft blend weights for the current
// total coverage progress in [0,1]: gate-heavy when progress is low,
// soft-heavy when progress is high.
func Weights(currentTotal float64) (wGate, wSoft float64) {
	if currentTotal < 0 {
		currentTotal = 0
	}
	if currentTotal > 1 {
		currentTotal = 1
	}
	wSoft = currentTotal
	wGate = 1 - currentTotal
	return
}

// FusedEvidence returns the weighted blend of a patch's gate and soft
// evidence, given the current overall progress.
func (l *SplitLedger) FusedEvidence(patchID string, currentTotal float64) float64 {
	wGate, wSoft := Weights(currentTotal)
	var eGate, eSoft float64
	if g, ok := l.Gate[patchID]; ok {
		eGate = g.Evidence
	}
	if s, ok := l.Soft[patchID]; ok {
		eSoft = s.Evidence
	}
	return wGate*eGate + wSoft*eSoft
}

// PruneStrategy selects which ledger pruning rule to apply. Both
// supported strategies share the same tie-break order (spec §4.E);
// the strategy only changes which ledger's Evidence/LastUpdateMS is
// read for ranking.
type PruneStrategy uint8

const (
	PruneByGate PruneStrategy = iota
	PruneBySoft
)

// PrunePatches deterministically selects up to keepCount survivor
// patch IDs, ranked by (descending evidence, ascending last_update_ms,
// ascending patch_id).
func (l *SplitLedger) PrunePatches(keepCount int, strategy PruneStrategy) []string {
	ledger := l.Gate
	if strategy == PruneBySoft {
		ledger = l.Soft
	}

	ids := make([]string, 0, len(ledger))
	for id := range ledger {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		a, b := ledger[ids[i]], ledger[ids[j]]
		if a.Evidence != b.Evidence {
			return a.Evidence > b.Evidence
		}
		if a.LastUpdateMS != b.LastUpdateMS {
			return a.LastUpdateMS < b.LastUpdateMS
		}
		return ids[i] < ids[j]
	})

	if keepCount < len(ids) {
		ids = ids[:keepCount]
	}
	return ids
}
