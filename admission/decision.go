// Package admission implements the admission-control decision hash
// (spec §4.L, §6): a bit-exact canonical pre-image built from explicit
// capacity and policy inputs, its SHA-256 decision hash, and idempotent
// replay of extension requests.
package admission

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/luxfi/scenekernel/canon"
)

// ErrFlowCounterMismatch is returned when len(PerFlowCounters) does not
// equal FlowBucketCount.
var ErrFlowCounterMismatch = errors.New("admission: per_flow_counters length does not match flow_bucket_count")

// ErrMissingDegradationReason is returned when DegradationLevel is
// nonzero but DegradationReason is nil.
var ErrMissingDegradationReason = errors.New("admission: nonzero degradation_level requires a reason code")

// Classification is the admission outcome.
type Classification string

const (
	ClassificationAccepted Classification = "ACCEPTED"
	ClassificationRejected Classification = "REJECTED"
	ClassificationDegraded Classification = "DEGRADED"
)

// BuildMode tags which build produced a decision.
type BuildMode uint8

// ThrottleStats describes an optional sliding-window throttle state.
type ThrottleStats struct {
	WindowStartTick   uint64
	WindowDurationTicks uint32
	AttemptsInWindow  uint32
}

// Input is the full, explicit set of fields that feed the canonical
// decision-hash pre-image (spec §6's byte-offset table).
type Input struct {
	LayoutVersion     uint8
	CandidateID       uuid.UUID
	PatchCountShadow  uint32
	EEBRemainingQ16   int64
	EEBDeltaQ16       int64
	BuildModeTag      BuildMode
	RejectReasonTag   *uint8 // nil means absent
	HardFuseTag       *uint8 // nil means absent
	PolicyHash        uint64
	SessionStableID   uint64
	CandidateStableID uint64
	ValueScore        int64
	PerFlowCounters   []uint16
	FlowBucketCount   uint16
	Throttle          *ThrottleStats // nil means absent
	DegradationLevel  uint8
	DegradationReason *uint8 // must be non-nil if DegradationLevel != 0
	SchemaVersion     uint16
}

// DefaultLayoutVersion is the current canonical pre-image layout tag.
const DefaultLayoutVersion uint8 = 0x01

// Validate checks the cross-field invariants spec §4.L requires to fail
// fast before canonicalization.
func (in Input) Validate() error {
	if int(in.FlowBucketCount) != len(in.PerFlowCounters) {
		return fmt.Errorf("%w: got %d counters, flow_bucket_count=%d",
			ErrFlowCounterMismatch, len(in.PerFlowCounters), in.FlowBucketCount)
	}
	if in.DegradationLevel != 0 && in.DegradationReason == nil {
		return ErrMissingDegradationReason
	}
	return nil
}

// CanonicalBytes builds the bit-exact pre-image described in spec §6.
// The returned slice is an independent copy; it never aliases any slice
// held by in.
func CanonicalBytes(in Input) ([]byte, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	w := canon.NewWriter(128 + 2*len(in.PerFlowCounters))
	w.Byte(in.LayoutVersion)
	w.Raw(in.CandidateID[:]) // RFC 4122 byte order, 16 bytes
	w.U32(in.PatchCountShadow)
	w.I64(in.EEBRemainingQ16)
	w.I64(in.EEBDeltaQ16)
	w.Byte(byte(in.BuildModeTag))

	w.Presence(in.RejectReasonTag != nil)
	if in.RejectReasonTag != nil {
		w.Byte(*in.RejectReasonTag)
	}

	w.Presence(in.HardFuseTag != nil)
	if in.HardFuseTag != nil {
		w.Byte(*in.HardFuseTag)
	}

	w.U64(in.PolicyHash)
	w.U64(in.SessionStableID)
	w.U64(in.CandidateStableID)
	w.I64(in.ValueScore)

	w.U16(in.FlowBucketCount)
	for _, c := range in.PerFlowCounters {
		w.U16(c)
	}

	w.Presence(in.Throttle != nil)
	if in.Throttle != nil {
		w.U64(in.Throttle.WindowStartTick)
		w.U32(in.Throttle.WindowDurationTicks)
		w.U32(in.Throttle.AttemptsInWindow)
	}

	w.Byte(in.DegradationLevel)
	if in.DegradationLevel != 0 {
		w.Byte(*in.DegradationReason)
	}

	w.U16(in.SchemaVersion)

	return w.Bytes(), nil
}

// DecisionHash returns SHA256(canonical_bytes).
func DecisionHash(canonicalBytes []byte) [32]byte {
	return sha256.Sum256(canonicalBytes)
}

// Decision is the admission outcome returned alongside the canonical
// bytes and decision hash.
type Decision struct {
	CandidateID      uuid.UUID
	Classification   Classification
	Reason           *uint8
	EEBDeltaQ16      int64
	BuildMode        BuildMode
	GuidanceSignal   int64
	HardFuseTrigger  *uint8
	CanonicalBytes   []byte
	DecisionHashHex  string
}

// Evaluate canonicalizes in, hashes it, and assembles the admission
// decision. Same inputs always produce the same canonical bytes and
// hash across platforms and runs (spec §8).
func Evaluate(in Input, classification Classification, guidanceSignal int64) (Decision, error) {
	raw, err := CanonicalBytes(in)
	if err != nil {
		return Decision{}, err
	}
	h := DecisionHash(raw)
	hex, err := canon.Hash32Hex(h[:])
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		CandidateID:     in.CandidateID,
		Classification:  classification,
		Reason:          in.RejectReasonTag,
		EEBDeltaQ16:     in.EEBDeltaQ16,
		BuildMode:       in.BuildModeTag,
		GuidanceSignal:  guidanceSignal,
		HardFuseTrigger: in.HardFuseTag,
		CanonicalBytes:  raw,
		DecisionHashHex: hex,
	}, nil
}
