// Package config defines the explicit configuration surface driver
// programs use to construct a session (spec §6: "the core exposes no
// CLI or env surface; driver programs supply configuration by explicit
// struct").
package config

import (
	"github.com/luxfi/scenekernel/smoother"
	"github.com/luxfi/scenekernel/state"
)

// SoftmaxMode selects between the strict, bit-exact LUT-based softmax
// and a (currently identical) fast path reserved for a future
// approximate implementation; spec §6 names both values even though
// only "strict" is implemented today.
type SoftmaxMode string

const (
	SoftmaxStrict SoftmaxMode = "strict"
	SoftmaxFast   SoftmaxMode = "fast"
)

// Parameters is the full set of named tunables spec §6 and §3/§4
// collectively name for a session.
type Parameters struct {
	CellSize              float64
	MaxCells              int
	SoftmaxMode           SoftmaxMode
	StrictDeterminism     bool
	WALPath               string
	MerkleTileStorePath   string

	SoftWriteRequiresGateMin float64
	TauMS                    float64

	Smoother smoother.Config

	ColorThresholds state.ColorThresholds
	GateThresholds  state.GateThresholds

	SchemaVersion uint16
	PolicyHash    uint64
}

// Default returns the spec-literal default Parameters.
func Default() Parameters {
	return Parameters{
		CellSize:                1.0,
		MaxCells:                100_000,
		SoftmaxMode:             SoftmaxStrict,
		StrictDeterminism:       true,
		WALPath:                 "scenekernel.wal",
		MerkleTileStorePath:     "scenekernel.merkle",
		SoftWriteRequiresGateMin: 0.5,
		TauMS:                   1000,
		Smoother:                smoother.DefaultConfig(),
		ColorThresholds:         state.DefaultColorThresholds(),
		GateThresholds:          state.DefaultGateThresholds(),
		SchemaVersion:           1,
	}
}
