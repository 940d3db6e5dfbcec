package merkle

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThreeLeafInclusionMatchesWorkedExample(t *testing.T) {
	tr := NewTree(nil)
	tr.AppendHash([]byte("h0"))
	tr.AppendHash([]byte("h1"))
	tr.AppendHash([]byte("h2"))

	h0 := HashLeaf([]byte("h0"))
	h1 := HashLeaf([]byte("h1"))
	h2 := HashLeaf([]byte("h2"))
	wantRoot := HashNode(HashNode(h0, h1), h2)
	require.Equal(t, wantRoot, tr.RootHash())

	proof, err := tr.GenerateInclusionProof(1)
	require.NoError(t, err)
	require.Equal(t, []Hash{h0, h2}, proof.Path)
	require.True(t, proof.Verify([]byte("h1"), tr.RootHash()))
}

func TestInclusionProofRejectsWrongLeaf(t *testing.T) {
	tr := NewTree(nil)
	for _, x := range []string{"a", "b", "c", "d", "e"} {
		tr.AppendHash([]byte(x))
	}
	proof, err := tr.GenerateInclusionProof(2)
	require.NoError(t, err)
	require.True(t, proof.Verify([]byte("c"), tr.RootHash()))
	require.False(t, proof.Verify([]byte("wrong"), tr.RootHash()))
}

func TestInclusionProofAllIndices(t *testing.T) {
	tr := NewTree(nil)
	leaves := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, x := range leaves {
		tr.AppendHash([]byte(x))
	}
	root := tr.RootHash()
	for i, x := range leaves {
		proof, err := tr.GenerateInclusionProof(i)
		require.NoError(t, err)
		require.True(t, proof.Verify([]byte(x), root), "index %d", i)
	}
}

func TestInclusionProofOutOfRange(t *testing.T) {
	tr := NewTree(nil)
	tr.AppendHash([]byte("a"))
	_, err := tr.GenerateInclusionProof(5)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestConsistencyProofRoundTrip(t *testing.T) {
	tr := NewTree(nil)
	leaves := []string{"a", "b", "c", "d", "e"}
	var rootAtSize [6]Hash
	for i, x := range leaves {
		tr.AppendHash([]byte(x))
		rootAtSize[i+1] = tr.RootHash()
	}

	for m := 1; m < len(leaves); m++ {
		proof, err := tr.GenerateConsistencyProof(m)
		require.NoError(t, err)
		ok := VerifyConsistency(proof, m, len(leaves), rootAtSize[m], rootAtSize[len(leaves)])
		require.True(t, ok, "m=%d", m)
	}
}

func TestConsistencyProofEqualSizesIsEmpty(t *testing.T) {
	tr := NewTree(nil)
	tr.AppendHash([]byte("a"))
	tr.AppendHash([]byte("b"))
	proof, err := tr.GenerateConsistencyProof(2)
	require.NoError(t, err)
	require.Empty(t, proof)
	require.True(t, VerifyConsistency(proof, 2, 2, tr.RootHash(), tr.RootHash()))
}

func TestSignedTreeHeadVerifies(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	tr := NewTree(nil)
	tr.AppendHash([]byte("a"))
	tr.AppendHash([]byte("b"))

	sth := tr.SignTreeHead(priv, 1_700_000_000)
	require.NoError(t, sth.Verify(pub))
	require.Equal(t, LogIDFor(pub), sth.LogID)
}

func TestSignedTreeHeadMutationInvalidatesSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	tr := NewTree(nil)
	tr.AppendHash([]byte("a"))
	sth := tr.SignTreeHead(priv, 42)
	require.NoError(t, sth.Verify(pub))

	mutated := sth
	mutated.TreeSize++
	require.ErrorIs(t, mutated.Verify(pub), ErrInvalidSignature)

	mutated = sth
	mutated.TimestampNs++
	require.ErrorIs(t, mutated.Verify(pub), ErrInvalidSignature)

	mutated = sth
	mutated.RootHash[0] ^= 0xFF
	require.ErrorIs(t, mutated.Verify(pub), ErrInvalidSignature)
}

func TestTileFlushOnBoundary(t *testing.T) {
	store := NewMemTileStore()
	tr := NewTree(store)
	for i := 0; i < TileSize; i++ {
		tr.AppendHash([]byte{byte(i)})
	}
	tile, ok := store.GetTile(0)
	require.True(t, ok)
	require.Len(t, tile, TileSize)
}
