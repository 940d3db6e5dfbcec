// Package provenance implements the hash-chained audit trail for state
// transitions (spec §4.J): each transition's canonical string is hashed
// together with the previous entry's hash, so tampering with any entry
// breaks verification for every entry after it.
package provenance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/scenekernel/canon"
)

// ErrChainBroken is returned by VerifyChain when any entry's recomputed
// hash does not match its stored hash.
var ErrChainBroken = errors.New("provenance: hash chain broken")

// LevelBreakdown holds occupancy-level cell counts, indexed by level.
type LevelBreakdown []int64

// Digest canonicalizes as "L0=c0\nL1=c1\n...".
func (lb LevelBreakdown) Digest() string {
	var b strings.Builder
	for i, c := range lb {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "L%d=%d", i, c)
	}
	return b.String()
}

// PIZSummary holds the "protected inference zone" coverage summary.
type PIZSummary struct {
	Count            int64
	TotalAreaSqM     float64
	ExcludedAreaSqM  float64
}

// Digest canonicalizes as "count=...\ntotalAreaSqM=...\nexcludedAreaSqM=...".
func (p PIZSummary) Digest() string {
	return fmt.Sprintf("count=%d\ntotalAreaSqM=%s\nexcludedAreaSqM=%s",
		p.Count, formatFixed(p.TotalAreaSqM), formatFixed(p.ExcludedAreaSqM))
}

// formatFixed renders a float with fixed-decimal notation (never
// scientific), matching the canonical JSON/string float convention
// used throughout this module (spec §6).
func formatFixed(f float64) string {
	return fmt.Sprintf("%.6f", f)
}

// Transition is the set of fields appended to the chain for one state
// transition.
type Transition struct {
	TimestampMs    int64
	FromStateRaw   string
	ToStateRaw     string
	Coverage       float64
	LevelBreakdown LevelBreakdown
	PIZ            PIZSummary
	GridDigest     string
	PolicyDigest   string
}

// Entry is one appended, hashed transition.
type Entry struct {
	Transition
	CoverageQuantized int32
	PrevHash          string
	Hash              string
}

// Chain is an append-only, hash-linked sequence of transitions.
type Chain struct {
	entries  []Entry
	lastHash string
}

// NewChain constructs an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// canonicalString builds the fixed-order "|"-joined string hashed for
// this transition (spec §4.J). No whitespace beyond what the fields
// themselves may contain; the separator is the literal pipe character.
func canonicalString(t Transition, quantized int32, prevHash string) string {
	fields := []string{
		fmt.Sprintf("%d", t.TimestampMs),
		t.FromStateRaw,
		t.ToStateRaw,
		fmt.Sprintf("%d", quantized),
		t.LevelBreakdown.Digest(),
		t.PIZ.Digest(),
		t.GridDigest,
		t.PolicyDigest,
		prevHash,
	}
	return strings.Join(fields, "|")
}

// AppendTransition quantizes coverage, builds the canonical string,
// hashes it, appends the entry, and returns the new hex hash.
func (c *Chain) AppendTransition(t Transition) string {
	quantized := int32(roundHalfAwayFromZero(t.Coverage * 10000))
	canonical := canonicalString(t, quantized, c.lastHash)
	sum := canon.StdCrypto{}.SHA256([]byte(canonical))
	h := canon.HexLower(sum[:])

	c.entries = append(c.entries, Entry{
		Transition:        t,
		CoverageQuantized: quantized,
		PrevHash:          c.lastHash,
		Hash:              h,
	})
	c.lastHash = h
	return h
}

// roundHalfAwayFromZero rounds f to the nearest integer, ties away from
// zero, matching the "round" used for coverage quantization.
func roundHalfAwayFromZero(f float64) int64 {
	if f >= 0 {
		return int64(f + 0.5)
	}
	return int64(f - 0.5)
}

// Entries returns the chain's entries in append order. The returned
// slice is an independent copy.
func (c *Chain) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// LastHash returns the hash of the most recently appended entry, or ""
// if the chain is empty.
func (c *Chain) LastHash() string { return c.lastHash }

// VerifyChain recomputes every entry's hash from entry 0 forward,
// threading prev_hash along the way, and reports whether the stored
// hashes match (spec §4.J, §8 scenario 3's tamper-detection property).
func (c *Chain) VerifyChain() error {
	prev := ""
	for i, e := range c.entries {
		quantized := int32(roundHalfAwayFromZero(e.Coverage * 10000))
		canonical := canonicalString(e.Transition, quantized, prev)
		sum := canon.StdCrypto{}.SHA256([]byte(canonical))
		h := canon.HexLower(sum[:])
		if h != e.Hash || e.PrevHash != prev {
			return fmt.Errorf("%w: entry %d", ErrChainBroken, i)
		}
		prev = h
	}
	return nil
}
