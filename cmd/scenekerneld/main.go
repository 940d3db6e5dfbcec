// Command scenekerneld is a small demo driver that wires a session
// together, feeds one frame of synthetic observations through it, and
// prints the resulting color state, provenance hash, and signed tree
// head. The kernel itself exposes no CLI surface (spec §6); this binary
// is purely an external collaborator supplying explicit configuration.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"fmt"
	"os"

	"github.com/luxfi/scenekernel/clock"
	"github.com/luxfi/scenekernel/config"
	"github.com/luxfi/scenekernel/fusion"
	"github.com/luxfi/scenekernel/session"
	"github.com/luxfi/scenekernel/state"
)

func main() {
	sessionID := flag.String("session-id", "demo-session", "session identifier")
	coverage := flag.Float64("coverage", 0.30, "aggregate coverage figure for the demo frame")
	softEvidence := flag.Float64("soft-evidence", 0.40, "aggregate soft-evidence figure for the demo frame")
	flag.Parse()

	clk := clock.Must()
	sess := session.New(*sessionID, config.Default(), clk, nil, nil)

	result, err := sess.ProcessFrame("main", session.FrameInput{
		Observations: []fusion.Observation{
			{PatchID: "patch-0", GateQuality: 0.9, SoftQuality: 0.6, Verdict: 0.7, FrameID: 1, TimestampMS: clk.NowMS()},
		},
		Coverage:      *coverage,
		SoftEvidence:  *softEvidence,
		QualitySignal: *softEvidence,
		Gate: state.GateInputs{
			Tier:                 state.TierFull,
			BrightnessConfidence: 0.95,
			LaplacianConfidence:  0.95,
			StabilityVariance:    0.05,
		},
		GridDigest:   "demo-grid",
		PolicyDigest: "demo-policy",
		TimestampMS:  clk.NowMS(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "scenekerneld: process_frame failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("frame_id=%d color=%s visual=%s active_cells=%d\n",
		result.FrameID, result.Color, result.Visual, result.ActiveCells)
	if result.ProvenanceHash != "" {
		fmt.Printf("provenance_hash=%s\n", result.ProvenanceHash)
	}
	fmt.Printf("merkle_root=%x\n", result.MerkleRoot)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scenekerneld: key generation failed: %v\n", err)
		os.Exit(1)
	}
	sth := sess.SignTreeHead(priv, clk.NowNS())
	fmt.Printf("sth: tree_size=%d root=%x log_id=%x\n", sth.TreeSize, sth.RootHash, sth.LogID)
	if err := sth.Verify(pub); err != nil {
		fmt.Fprintf(os.Stderr, "scenekerneld: signed tree head failed to verify: %v\n", err)
		os.Exit(1)
	}
}
