package canon

import "errors"

var (
	// ErrShortRead is returned when a Reader runs out of bytes mid-field.
	ErrShortRead = errors.New("canon: short read")
	// ErrInvalidPresenceTag is returned when a presence byte is not 0 or 1.
	ErrInvalidPresenceTag = errors.New("canon: invalid presence tag")
	// ErrInvalidHashLength is returned when a hash is not exactly 32 bytes.
	ErrInvalidHashLength = errors.New("canon: hash must be exactly 32 bytes")
)
