package canon

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
)

// CryptoBackend is a thin facade over the hash/sign/verify primitives
// this module needs, so an alternate crypto backend can be substituted
// without touching callers (§4.B, §9's "capability interfaces" design
// note). The default implementation reaches directly for
// crypto/sha256 and crypto/ed25519, matching the teacher's own choice
// in cmd/consensus/bench.go to import crypto/ed25519 directly rather
// than through a third-party wrapper.
type CryptoBackend interface {
	SHA256(data []byte) [32]byte
	Sign(priv ed25519.PrivateKey, message []byte) []byte
	Verify(pub ed25519.PublicKey, message, sig []byte) bool
	GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error)
}

// StdCrypto is the default CryptoBackend.
type StdCrypto struct{}

var _ CryptoBackend = StdCrypto{}

// SHA256 hashes data and returns the 32-byte digest.
func (StdCrypto) SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Sign produces an Ed25519 signature over message.
func (StdCrypto) Sign(priv ed25519.PrivateKey, message []byte) []byte {
	return ed25519.Sign(priv, message)
}

// Verify checks an Ed25519 signature over message.
func (StdCrypto) Verify(pub ed25519.PublicKey, message, sig []byte) bool {
	return ed25519.Verify(pub, message, sig)
}

// GenerateKey generates a new Ed25519 key pair using crypto/rand.
func (StdCrypto) GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}
