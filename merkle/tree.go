package merkle

import (
	"crypto/sha256"
	"errors"
	"sync"
)

// ErrIndexOutOfRange is returned when an inclusion proof is requested
// for a leaf index at or beyond the current tree size.
var ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")

// ErrShortProof is returned when a proof has fewer elements than the
// verification algorithm requires to reach a root.
var ErrShortProof = errors.New("merkle: proof too short")

// ErrInvalidConsistencySizes is returned when a consistency proof is
// requested or verified with sizes that don't satisfy 0 <= m <= n.
var ErrInvalidConsistencySizes = errors.New("merkle: invalid consistency proof sizes")

// Tree is an append-only, tile-addressable Merkle tree. Leaves are kept
// in memory (mirrored into the TileStore as each tile of TileSize fills)
// so that RootHash, GenerateInclusionProof, and GenerateConsistencyProof
// can all operate on a plain in-memory slice without re-fetching tiles;
// the tile store exists for durability, following the teacher's
// pattern of a mutex-owned cache with a pluggable backing store
// (dag/witness.Cache over its node LRU).
type Tree struct {
	mu     sync.Mutex
	leaves []Hash
	tiles  TileStore
}

// NewTree constructs an empty tree backed by store. A nil store uses an
// in-memory MemTileStore.
func NewTree(store TileStore) *Tree {
	if store == nil {
		store = NewMemTileStore()
	}
	return &Tree{tiles: store}
}

// Size returns the current number of leaves.
func (t *Tree) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.leaves)
}

// AppendHash hashes preimage as a leaf and appends it, returning the
// new leaf's index and the tree size after the append. Filling a tile
// (every TileSize leaves) flushes that tile to the backing TileStore.
func (t *Tree) AppendHash(preimage []byte) (index int, size int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := HashLeaf(preimage)
	t.leaves = append(t.leaves, h)
	index = len(t.leaves) - 1

	if len(t.leaves)%TileSize == 0 {
		tileIdx := index / TileSize
		start := tileIdx * TileSize
		_ = t.tiles.PutTile(tileIdx, t.leaves[start:start+TileSize])
	}
	return index, len(t.leaves)
}

// RootHash returns MTH over all currently appended leaves, per RFC 9162
// §2.1's recursive definition.
func (t *Tree) RootHash() Hash {
	t.mu.Lock()
	defer t.mu.Unlock()
	return mth(t.leaves)
}

func mth(leaves []Hash) Hash {
	n := len(leaves)
	if n == 0 {
		return sha256.Sum256(nil)
	}
	if n == 1 {
		return leaves[0]
	}
	k := largestPowerOfTwoLessThan(n)
	return HashNode(mth(leaves[:k]), mth(leaves[k:]))
}

// InclusionProof is the audit path for one leaf at the time it was
// generated.
type InclusionProof struct {
	TreeSize  int
	LeafIndex int
	Path      []Hash
}

// GenerateInclusionProof returns the audit path for leaf i (spec §4.K,
// §8 scenario 5).
func (t *Tree) GenerateInclusionProof(i int) (InclusionProof, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.leaves) {
		return InclusionProof{}, ErrIndexOutOfRange
	}
	return InclusionProof{
		TreeSize:  len(t.leaves),
		LeafIndex: i,
		Path:      auditPath(i, t.leaves),
	}, nil
}

func auditPath(index int, leaves []Hash) []Hash {
	n := len(leaves)
	if n <= 1 {
		return nil
	}
	k := largestPowerOfTwoLessThan(n)
	if index < k {
		return append(auditPath(index, leaves[:k]), mth(leaves[k:]))
	}
	return append(auditPath(index-k, leaves[k:]), mth(leaves[:k]))
}

// Verify recomputes the root from leafPreimage and the proof's path,
// returning whether it equals root.
func (p InclusionProof) Verify(leafPreimage []byte, root Hash) bool {
	leafHash := HashLeaf(leafPreimage)
	computed, rest, err := verifyAuditPath(p.LeafIndex, p.TreeSize, leafHash, p.Path)
	if err != nil || len(rest) != 0 {
		return false
	}
	return computed == root
}

func verifyAuditPath(index, n int, leafHash Hash, path []Hash) (Hash, []Hash, error) {
	if n <= 1 {
		return leafHash, path, nil
	}
	k := largestPowerOfTwoLessThan(n)
	if index < k {
		left, rest, err := verifyAuditPath(index, k, leafHash, path)
		if err != nil {
			return Hash{}, nil, err
		}
		if len(rest) == 0 {
			return Hash{}, nil, ErrShortProof
		}
		return HashNode(left, rest[0]), rest[1:], nil
	}
	right, rest, err := verifyAuditPath(index-k, n-k, leafHash, path)
	if err != nil {
		return Hash{}, nil, err
	}
	if len(rest) == 0 {
		return Hash{}, nil, ErrShortProof
	}
	return HashNode(rest[0], right), rest[1:], nil
}

// GenerateConsistencyProof returns the RFC 9162 §2.1.4 consistency
// proof that the tree at size m is a prefix of the tree at its current
// size n (the Open Question spec §9 calls out as requiring an explicit
// decision: this module implements it rather than leaving it as a TODO
// behind a feature flag).
func (t *Tree) GenerateConsistencyProof(m int) ([]Hash, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.leaves)
	if m < 0 || m > n {
		return nil, ErrInvalidConsistencySizes
	}
	if m == 0 || m == n {
		return nil, nil
	}
	return subProof(m, t.leaves, true), nil
}

// subProof implements RFC 9162's SUBPROOF(m, D[0:n], b).
func subProof(m int, d []Hash, b bool) []Hash {
	n := len(d)
	if m == n {
		if b {
			return nil
		}
		return []Hash{mth(d)}
	}
	k := largestPowerOfTwoLessThan(n)
	if m <= k {
		return append(subProof(m, d[:k], b), mth(d[k:]))
	}
	return append(subProof(m-k, d[k:], false), mth(d[:k]))
}

// VerifyConsistency checks that proof demonstrates the tree at size m
// (root firstRoot) is a prefix of the tree at size n (root secondRoot),
// per RFC 9162 §2.1.4.2's verification algorithm.
func VerifyConsistency(proof []Hash, m, n int, firstRoot, secondRoot Hash) bool {
	if m < 0 || n < m {
		return false
	}
	if m == n {
		return len(proof) == 0 && firstRoot == secondRoot
	}
	if m == 0 {
		return true
	}
	if len(proof) == 0 {
		return false
	}

	node := m - 1
	lastNode := n - 1
	for node%2 == 1 {
		node >>= 1
		lastNode >>= 1
	}

	var fh, sh Hash
	if node > 0 {
		fh, sh = proof[0], proof[0]
		proof = proof[1:]
	} else {
		fh, sh = firstRoot, firstRoot
	}

	for node > 0 {
		if node%2 == 1 {
			if len(proof) == 0 {
				return false
			}
			p := proof[0]
			proof = proof[1:]
			fh = HashNode(p, fh)
			sh = HashNode(p, sh)
		} else if node < lastNode {
			if len(proof) == 0 {
				return false
			}
			p := proof[0]
			proof = proof[1:]
			sh = HashNode(sh, p)
		}
		node >>= 1
		lastNode >>= 1
	}

	if fh != firstRoot {
		return false
	}

	for lastNode > 0 {
		if len(proof) == 0 {
			return false
		}
		p := proof[0]
		proof = proof[1:]
		sh = HashNode(sh, p)
		lastNode >>= 1
	}

	return sh == secondRoot && len(proof) == 0
}
