// Package session implements the top-level orchestrator that owns the
// grid, ledger, state machines, provenance chain, and Merkle tree, and
// enforces the single-threaded frame-ownership contract around them
// (spec §2's data-flow line, §5's concurrency model).
//
// The "one owning struct holds several sub-component pointers and
// exposes a small number of high-level operations" shape is grounded
// on the teacher's quorum.Tree, which owns focus/choices/preference
// behind a single mutex and a handful of public methods.
package session

import (
	"crypto/ed25519"
	"fmt"
	"sync"

	"github.com/luxfi/scenekernel/admission"
	"github.com/luxfi/scenekernel/clock"
	"github.com/luxfi/scenekernel/config"
	"github.com/luxfi/scenekernel/frame"
	"github.com/luxfi/scenekernel/fusion"
	"github.com/luxfi/scenekernel/grid"
	"github.com/luxfi/scenekernel/merkle"
	"github.com/luxfi/scenekernel/provenance"
	"github.com/luxfi/scenekernel/q16"
	"github.com/luxfi/scenekernel/smoother"
	"github.com/luxfi/scenekernel/softmax"
	"github.com/luxfi/scenekernel/state"
	"github.com/luxfi/scenekernel/telemetry"

	logfacade "github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
)

// FrameInput is the explicit set of values one ProcessFrame call
// consumes: grid mutations, ledger observations, and the aggregate
// coverage/soft-evidence figures the smoother and state machines
// evaluate against.
type FrameInput struct {
	GridOps      []grid.Op
	Observations []fusion.Observation
	Coverage     float64
	SoftEvidence float64
	// QualitySignal is an auxiliary health/quality figure (e.g. an
	// aggregate patch-confidence score) passed through the anti-boost
	// smoother; it reports SmoothedValue but, per spec §8 scenario 4,
	// does not itself gate the color-state mapping — coverage and
	// soft evidence drive ColorMachine directly and unsmoothed.
	QualitySignal float64
	Gate          state.GateInputs
	GridDigest    string
	PolicyDigest  string
	TimestampMS   int64
	// PatchLogits is an optional vector of Q16 per-patch priority logits
	// for this frame (e.g. fused-evidence scores); when non-empty it is
	// run through softmax to produce normalized priority weights (spec
	// §4.I), reported in FrameResult.PatchWeights.
	PatchLogits []q16.Scalar
}

// FrameResult is everything ProcessFrame reports back for one frame.
type FrameResult struct {
	FrameID        uint64
	SmoothedValue  float64
	Color          state.ColorState
	Visual         state.VisualState
	GateResult     *state.GateResult // non-nil only when the color state changed this frame
	ProvenanceHash string            // "" if the color state did not change this frame
	MerkleRoot     merkle.Hash
	ActiveCells    int
	PatchWeights   []q16.Scalar // nil unless FrameInput.PatchLogits was non-empty
}

// Session owns every piece of mutable evidence state for one capture
// pipeline instance and is the sole mutator of all of it (spec §9:
// "the session owns the grid, ledger, state machines, provenance chain,
// and Merkle tree").
type Session struct {
	mu sync.Mutex

	id     string
	params config.Parameters
	clk    clock.Clock
	strict bool

	grid          *grid.Grid
	ledger        *fusion.SplitLedger
	smoother      *smoother.Smoother
	colorMachine  *state.ColorMachine
	visualMachine *state.VisualMachine
	provenance    *provenance.Chain
	merkleTree    *merkle.Tree
	admission     *admission.Ledger

	frameGen    frame.IDGenerator
	reentrancy  *frame.ReentrancyGuard
	threads     *frame.ThreadVerifier
	leakLog     *telemetry.LeakLogger
	overflow    *telemetry.OverflowReporter
	metrics     *telemetry.Metrics

	lastFrameID uint64
}

// New constructs a Session. logger and reg may be nil, in which case a
// no-op logger and a fresh prometheus registry are used.
func New(id string, params config.Parameters, clk clock.Clock, logger logfacade.Logger, reg prometheus.Registerer) *Session {
	if logger == nil {
		logger = telemetry.NewNoOpLogger()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Session{
		id:            id,
		params:        params,
		clk:           clk,
		strict:        params.StrictDeterminism,
		grid:          grid.New(params.MaxCells),
		ledger:        fusion.NewSplitLedger(params.SoftWriteRequiresGateMin, params.TauMS),
		smoother:      smoother.New(params.Smoother),
		colorMachine:  state.NewColorMachine(params.ColorThresholds),
		visualMachine: state.NewVisualMachine(),
		provenance:    provenance.NewChain(),
		merkleTree:    merkle.NewTree(nil),
		admission:     admission.NewLedger(),
		reentrancy:    frame.NewReentrancyGuard(params.StrictDeterminism),
		threads:       frame.NewThreadVerifier(params.StrictDeterminism),
		leakLog:       telemetry.NewLeakLogger(logger),
		overflow:      telemetry.NewOverflowReporter(logger, params.StrictDeterminism),
		metrics:       telemetry.NewMetrics(reg),
	}
}

// ProcessFrame is the session's single outer entry point for advancing
// the pipeline by one frame (spec §5: "process_frame" is a mandatory
// reentrancy-guarded, thread-verified outer entry point; frames are
// strictly sequential by FrameID).
func (s *Session) ProcessFrame(threadToken string, in FrameInput) (FrameResult, error) {
	release, err := s.reentrancy.Enter("process_frame")
	if err != nil {
		return FrameResult{}, err
	}
	defer release()

	if err := s.threads.Assert(threadToken); err != nil {
		return FrameResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	frameID := s.frameGen.Next()
	if frameID != s.lastFrameID+1 {
		if s.strict {
			panic(fmt.Errorf("%w: %v", frame.ErrOutOfOrder, frameID))
		}
		return FrameResult{}, fmt.Errorf("%w: expected %d, got %d", frame.ErrOutOfOrder, s.lastFrameID+1, frameID)
	}

	fctx := frame.NewContext(frameID, s.id, s.strict, s.leakLog)

	evicted := s.grid.Apply(s.fuseGridOps(in.GridOps))
	if evicted > 0 {
		s.metrics.GridEvictions.Add(float64(evicted))
	}
	for _, obs := range in.Observations {
		s.ledger.Observe(obs)
	}

	var patchWeights []q16.Scalar
	if len(in.PatchLogits) > 0 {
		sm := softmax.Softmax(in.PatchLogits)
		patchWeights = sm.Weights
		for _, ev := range sm.Overflows {
			ev.Field = "patch_logit"
			ev.FrameID = frameID
			s.overflow.Report(ev)
			s.metrics.OverflowEvents.WithLabelValues(ev.Tier.String()).Inc()
		}
		for _, tr := range sm.Trace {
			if tr == softmax.TraceUniformFallback {
				s.metrics.SoftmaxFallbacks.Inc()
			}
		}
	}

	smoothed := s.smoother.Update(in.QualitySignal)
	_ = fctx.RecordQuality("smoothed_quality", smoothed)

	prevColor := s.colorMachine.Current()
	color := s.colorMachine.Evaluate(in.Coverage, in.SoftEvidence)
	visual := s.visualMachine.Evaluate(state.FromColor(color))

	var gateResult *state.GateResult
	if color != prevColor {
		transition := state.Transition{From: prevColor, To: color}
		res := state.EvaluateGate(transition, in.Gate, s.params.GateThresholds)
		gateResult = &res
		_ = fctx.RecordGateDecision("color_transition", res.Allowed)
		s.metrics.StateTransitions.WithLabelValues(color.String()).Inc()
	}

	var provenanceHash string
	if color != prevColor {
		provenanceHash = s.provenance.AppendTransition(provenance.Transition{
			TimestampMs:    in.TimestampMS,
			FromStateRaw:   prevColor.String(),
			ToStateRaw:     color.String(),
			Coverage:       in.Coverage,
			LevelBreakdown: levelBreakdown(s.grid),
			PIZ:            provenance.PIZSummary{},
			GridDigest:     in.GridDigest,
			PolicyDigest:   in.PolicyDigest,
		})
	}

	frameDigest := fmt.Sprintf("%d|%s|%.6f", frameID, color.String(), smoothed)
	s.merkleTree.AppendHash([]byte(frameDigest))

	if _, _, err := fctx.Consume(); err != nil {
		return FrameResult{}, err
	}

	s.lastFrameID = frameID

	return FrameResult{
		FrameID:        frameID,
		SmoothedValue:  smoothed,
		Color:          color,
		Visual:         visual,
		GateResult:     gateResult,
		ProvenanceHash: provenanceHash,
		MerkleRoot:     s.merkleTree.RootHash(),
		ActiveCells:    s.grid.Count(),
		PatchWeights:   patchWeights,
	}, nil
}

// fuseGridOps combines each OpUpdate's incoming mass with the existing
// cell's mass via Dempster-Shafer combination (spec §4.D/§4.E) before
// the batch is applied, rather than letting the new mass silently
// overwrite accumulated evidence. OpInsert and OpEvict pass through
// unchanged; last-write-within-a-batch semantics are preserved since
// each key's final written value is still exactly one Op.
func (s *Session) fuseGridOps(ops []grid.Op) []grid.Op {
	if len(ops) == 0 {
		return ops
	}
	fused := make([]grid.Op, len(ops))
	for i, op := range ops {
		if op.Kind == grid.OpUpdate {
			if existing, ok := s.grid.Get(op.Key); ok {
				res := fusion.Combine(existing.DSMass, op.Cell.DSMass)
				if res.TotalConflict {
					s.metrics.TotalConflictEvents.Inc()
				}
				op.Cell.DSMass = res.Mass
			}
		}
		fused[i] = op
	}
	return fused
}

// EvaluateAdmission evaluates one admission-control decision and
// records it in the idempotency ledger, replaying the stored snapshot
// instead of re-deciding when requestID has already been processed
// (spec §4.L). This sits outside ProcessFrame's hot path, driven by
// external admission-control callers.
func (s *Session) EvaluateAdmission(requestID string, in admission.Input, classification admission.Classification, guidanceSignal int64) (decision admission.Decision, replayed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.admission.AlreadyProcessed(requestID); ok {
		return snap.Decision, true, nil
	}

	decision, err = admission.Evaluate(in, classification, guidanceSignal)
	if err != nil {
		return admission.Decision{}, false, err
	}

	tag := admission.ResultExtended
	if classification == admission.ClassificationRejected {
		tag = admission.ResultDenied
	}
	s.admission.Record(requestID, admission.Snapshot{ResultTag: tag, Decision: decision})
	s.metrics.AdmissionDecisions.WithLabelValues(string(classification)).Inc()

	return decision, false, nil
}

// levelBreakdown tallies active cell counts per grid.Level for the
// provenance entry's level_breakdown_digest (spec §4.J).
func levelBreakdown(g *grid.Grid) provenance.LevelBreakdown {
	const numLevels = 7 // L0..L6, spec §4.D
	counts := make(provenance.LevelBreakdown, numLevels)
	for _, c := range g.AllActiveCells() {
		if int(c.Level) < numLevels {
			counts[c.Level]++
		}
	}
	return counts
}

// VerifyProvenance recomputes the provenance hash chain from scratch.
func (s *Session) VerifyProvenance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provenance.VerifyChain()
}

// SignTreeHead signs the session's Merkle audit tree at its current
// state (spec §4.K "Signed tree head").
func (s *Session) SignTreeHead(priv ed25519.PrivateKey, timestampNs int64) merkle.SignedTreeHead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merkleTree.SignTreeHead(priv, timestampNs)
}

// AdmissionLedger exposes the session's idempotency ledger for the
// admission subsystem, which lives outside the per-frame hot path
// (spec §4.L is driven by external inputs, not grid/ledger state).
func (s *Session) AdmissionLedger() *admission.Ledger { return s.admission }

// LastFrameID returns the last successfully applied FrameID.
func (s *Session) LastFrameID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrameID
}
