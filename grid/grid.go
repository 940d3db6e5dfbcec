// Package grid implements the spatial evidence grid (spec §4.D): a
// Morton-coded cell store with deterministic iteration, bounded
// capacity, and level-aware eviction. The batched-mutation shape is
// grounded on the teacher's dag/witness.Cache — a mutex-guarded map
// with a bounded budget and an explicit eviction policy — generalized
// here from a witness-node LRU to an order-sensitive, capacity-bounded
// cell store.
package grid

import (
	"sort"
	"sync"
)

// OpKind distinguishes the three mutation kinds a Batch may contain.
type OpKind uint8

const (
	OpInsert OpKind = iota
	OpUpdate
	OpEvict
)

// Op is one entry in a batch passed to Grid.Apply.
type Op struct {
	Kind OpKind
	Key  SpatialKey
	Cell Cell // ignored for OpEvict
}

// Grid is the bounded, deterministically-iterable cell store.
type Grid struct {
	mu       sync.Mutex
	cells    map[SpatialKey]Cell
	maxCells int
}

// New constructs an empty Grid with the given capacity. maxCells <= 0
// means unbounded.
func New(maxCells int) *Grid {
	return &Grid{
		cells:    make(map[SpatialKey]Cell),
		maxCells: maxCells,
	}
}

// Apply applies a batch of operations atomically (spec §4.D): inserts
// within the batch are applied in order, and within a batch the last
// write to a key wins. After applying all ops, capacity-driven
// eviction runs if needed before Apply returns. It reports how many
// cells capacity-driven eviction removed, for callers that report it.
func (g *Grid) Apply(batch []Op) (evicted int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, op := range batch {
		switch op.Kind {
		case OpInsert, OpUpdate:
			g.cells[op.Key] = op.Cell
		case OpEvict:
			delete(g.cells, op.Key)
		}
	}

	return g.evictLocked()
}

// evictLocked removes cells in excess of maxCells, chosen by
// (ascending level, ascending last_updated_ms, ascending morton code)
// — spec §4.D eviction policy. Must be called with mu held.
func (g *Grid) evictLocked() int {
	if g.maxCells <= 0 || len(g.cells) <= g.maxCells {
		return 0
	}

	keys := make([]SpatialKey, 0, len(g.cells))
	for k := range g.cells {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		ci, cj := g.cells[keys[i]], g.cells[keys[j]]
		if keys[i].Level != keys[j].Level {
			return keys[i].Level < keys[j].Level
		}
		if ci.LastUpdatedMS != cj.LastUpdatedMS {
			return ci.LastUpdatedMS < cj.LastUpdatedMS
		}
		return keys[i].Morton < keys[j].Morton
	})

	excess := len(g.cells) - g.maxCells
	for i := 0; i < excess; i++ {
		delete(g.cells, keys[i])
	}
	return excess
}

// AllActiveCells returns every live cell in deterministic Morton order:
// ascending by (level, morton code). Calling it twice on the same
// state yields an identical sequence.
func (g *Grid) AllActiveCells() []Cell {
	g.mu.Lock()
	defer g.mu.Unlock()

	keys := make([]SpatialKey, 0, len(g.cells))
	for k := range g.cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]Cell, len(keys))
	for i, k := range keys {
		out[i] = g.cells[k]
	}
	return out
}

// Count returns the current number of live cells.
func (g *Grid) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cells)
}

// Get returns the cell at key, if any.
func (g *Grid) Get(key SpatialKey) (Cell, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.cells[key]
	return c, ok
}
