// Package store implements the small capability interfaces spec §9
// calls for in place of deep inheritance — TileStore, WalStorage, and
// CounterStore — plus a pebble-backed implementation of each, following
// the teacher's "capability interface, concrete impl behind a
// constructor" shape (witness.Manager/Cache).
package store

import "context"

// WalEntry is one persisted write-ahead-log record (spec §6 "Persisted
// WAL record"): entry_id, hash, signed_entry_bytes, merkle_state,
// committed flag, timestamp.
type WalEntry struct {
	EntryID          uint64
	Hash             [32]byte
	SignedEntryBytes []byte
	MerkleState      []byte
	Committed        bool
	TimestampNs      int64
}

// WalStorage is the capability interface for the write-ahead log. Write
// must fsync before returning so callers can acknowledge commit only
// after durability is guaranteed (spec §6).
type WalStorage interface {
	Write(ctx context.Context, e WalEntry) error
	Read(ctx context.Context, entryID uint64) (WalEntry, error)
	Fsync(ctx context.Context) error
	Close() error
}

// CounterStore is the capability interface for named monotonic or
// arbitrary-valued u64 counters (per-flow counters, patch_count_shadow
// shadow state, and similar admission bookkeeping that must survive a
// process restart).
type CounterStore interface {
	Get(ctx context.Context, name string) (uint64, bool, error)
	Set(ctx context.Context, name string, value uint64) error
	Close() error
}
