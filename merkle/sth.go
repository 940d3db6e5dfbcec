package merkle

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"

	"github.com/luxfi/scenekernel/canon"
)

// ErrInvalidSignature is returned when a signed tree head's signature
// does not verify against its recomputed message bytes.
var ErrInvalidSignature = errors.New("merkle: invalid tree head signature")

// SignedTreeHead is an Ed25519-signed attestation of the tree's state
// at a point in time (spec §4.K "Signed tree head").
type SignedTreeHead struct {
	TreeSize    int
	TimestampNs int64
	RootHash    Hash
	Signature   []byte
	LogID       [32]byte
}

// LogIDFor returns SHA256(public_key), identifying the log that signed a tree head.
func LogIDFor(pub ed25519.PublicKey) [32]byte {
	return sha256.Sum256(pub)
}

// sthMessage builds BE(tree_size) || BE(timestamp_ns) || root_hash (spec §4.K, §6).
func sthMessage(treeSize int, timestampNs int64, root Hash) []byte {
	w := canon.NewWriter(8 + 8 + 32)
	w.U64(uint64(treeSize))
	w.I64(timestampNs)
	w.Raw(root[:])
	return w.Bytes()
}

// SignTreeHead signs the tree's current state at timestampNs with priv.
func (t *Tree) SignTreeHead(priv ed25519.PrivateKey, timestampNs int64) SignedTreeHead {
	t.mu.Lock()
	size := len(t.leaves)
	root := mth(t.leaves)
	t.mu.Unlock()

	msg := sthMessage(size, timestampNs, root)
	sig := ed25519.Sign(priv, msg)

	return SignedTreeHead{
		TreeSize:    size,
		TimestampNs: timestampNs,
		RootHash:    root,
		Signature:   sig,
		LogID:       LogIDFor(priv.Public().(ed25519.PublicKey)),
	}
}

// Verify recomputes the signed message from sth's fields and checks the
// Ed25519 signature against pub. Mutating TreeSize, TimestampNs, or
// RootHash after signing invalidates the signature (spec §8).
func (sth SignedTreeHead) Verify(pub ed25519.PublicKey) error {
	msg := sthMessage(sth.TreeSize, sth.TimestampNs, sth.RootHash)
	if !ed25519.Verify(pub, msg, sth.Signature) {
		return ErrInvalidSignature
	}
	return nil
}
