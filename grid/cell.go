package grid

import "github.com/luxfi/scenekernel/fusion"

// Cell is one spatial grid entry (spec §3 GridCell).
type Cell struct {
	PatchID          string
	QuantizedPos     [3]int32
	DimensionalScores []float64
	DSMass           fusion.Mass
	Level            Level
	DirectionalMask  uint32
	LastUpdatedMS    int64
}

// NewCell constructs a Cell, renormalizing DSMass via fusion.NewMass if
// its components don't sum to ~1 (spec §3 invariant: "if the invariant
// fails on construction the constructor renormalizes").
func NewCell(patchID string, pos [3]int32, scores []float64, mass fusion.Mass, level Level, dirMask uint32, lastUpdatedMS int64) Cell {
	return Cell{
		PatchID:           patchID,
		QuantizedPos:      pos,
		DimensionalScores: scores,
		DSMass:            fusion.NewMass(mass.Occupied, mass.Free, mass.Unknown),
		Level:             level,
		DirectionalMask:   dirMask,
		LastUpdatedMS:     lastUpdatedMS,
	}
}

// Key returns the cell's SpatialKey, computed from its quantized
// position and level.
func (c Cell) Key() SpatialKey {
	x, y, z := biasedCoords(c.QuantizedPos)
	return SpatialKey{Morton: EncodeMorton(x, y, z), Level: c.Level}
}

// biasedCoords maps signed quantized coordinates into the unsigned
// [0, 2^21) domain EncodeMorton requires, by adding a fixed bias large
// enough to cover any realistic scene extent while leaving headroom
// below the 21-bit ceiling.
const coordBias = int32(1 << 20)

func biasedCoords(pos [3]int32) (x, y, z uint32) {
	return uint32(pos[0] + coordBias), uint32(pos[1] + coordBias), uint32(pos[2] + coordBias)
}
