package canon

import "encoding/hex"

// HexLower returns the lowercase, unprefixed hex encoding of b. Both
// provenance hashes and admission decision hashes are formatted through
// it, so the two always share one format.
func HexLower(b []byte) string {
	return hex.EncodeToString(b) // hex.EncodeToString is already lowercase
}

// Hash32Hex formats a 32-byte hash as exactly 64 lowercase hex
// characters, no "0x" prefix. Returns ErrInvalidHashLength if h is not
// 32 bytes.
func Hash32Hex(h []byte) (string, error) {
	if len(h) != 32 {
		return "", ErrInvalidHashLength
	}
	return HexLower(h), nil
}
