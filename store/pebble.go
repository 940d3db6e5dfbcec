package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/luxfi/scenekernel/merkle"
)

// ErrNotFound is returned when a requested key has no stored value.
var ErrNotFound = errors.New("store: not found")

const (
	walPrefix     = 'w'
	counterPrefix = 'c'
	tilePrefix    = 't'
)

func walKey(entryID uint64) []byte {
	k := make([]byte, 9)
	k[0] = walPrefix
	binary.BigEndian.PutUint64(k[1:], entryID)
	return k
}

func counterKey(name string) []byte {
	k := make([]byte, 1+len(name))
	k[0] = counterPrefix
	copy(k[1:], name)
	return k
}

func tileKey(index int) []byte {
	k := make([]byte, 9)
	k[0] = tilePrefix
	binary.BigEndian.PutUint64(k[1:], uint64(index))
	return k
}

// PebbleTileStore persists Merkle tree tiles in a pebble key-value
// store, implementing merkle.TileStore.
type PebbleTileStore struct {
	db *pebble.DB
}

var _ merkle.TileStore = (*PebbleTileStore)(nil)

// OpenPebbleTileStore opens (or creates) a pebble database at dir for
// tile storage.
func OpenPebbleTileStore(dir string) (*PebbleTileStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("store: open tile db: %w", err)
	}
	return &PebbleTileStore{db: db}, nil
}

// PutTile writes leaves (32 bytes each, concatenated) under tile index.
func (s *PebbleTileStore) PutTile(index int, leaves []merkle.Hash) error {
	buf := make([]byte, 0, 32*len(leaves))
	for _, h := range leaves {
		buf = append(buf, h[:]...)
	}
	return s.db.Set(tileKey(index), buf, pebble.Sync)
}

// GetTile reads and decodes the leaves stored under tile index.
func (s *PebbleTileStore) GetTile(index int) ([]merkle.Hash, bool) {
	v, closer, err := s.db.Get(tileKey(index))
	if err != nil {
		return nil, false
	}
	defer closer.Close()

	n := len(v) / 32
	out := make([]merkle.Hash, n)
	for i := 0; i < n; i++ {
		copy(out[i][:], v[i*32:(i+1)*32])
	}
	return out, true
}

// Close releases the underlying pebble database.
func (s *PebbleTileStore) Close() error { return s.db.Close() }

// PebbleWAL implements WalStorage over a pebble database.
type PebbleWAL struct {
	db *pebble.DB
}

var _ WalStorage = (*PebbleWAL)(nil)

// OpenPebbleWAL opens (or creates) a pebble database at dir for WAL storage.
func OpenPebbleWAL(dir string) (*PebbleWAL, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("store: open wal db: %w", err)
	}
	return &PebbleWAL{db: db}, nil
}

func encodeWalEntry(e WalEntry) []byte {
	buf := make([]byte, 0, 8+32+4+len(e.SignedEntryBytes)+4+len(e.MerkleState)+1+8)
	var tmp [8]byte

	binary.BigEndian.PutUint64(tmp[:], e.EntryID)
	buf = append(buf, tmp[:]...)
	buf = append(buf, e.Hash[:]...)

	binary.BigEndian.PutUint32(tmp[:4], uint32(len(e.SignedEntryBytes)))
	buf = append(buf, tmp[:4]...)
	buf = append(buf, e.SignedEntryBytes...)

	binary.BigEndian.PutUint32(tmp[:4], uint32(len(e.MerkleState)))
	buf = append(buf, tmp[:4]...)
	buf = append(buf, e.MerkleState...)

	if e.Committed {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	binary.BigEndian.PutUint64(tmp[:], uint64(e.TimestampNs))
	buf = append(buf, tmp[:]...)
	return buf
}

func decodeWalEntry(buf []byte) (WalEntry, error) {
	var e WalEntry
	if len(buf) < 8+32+4 {
		return e, fmt.Errorf("store: truncated wal entry")
	}
	pos := 0
	e.EntryID = binary.BigEndian.Uint64(buf[pos:])
	pos += 8
	copy(e.Hash[:], buf[pos:pos+32])
	pos += 32

	if pos+4 > len(buf) {
		return WalEntry{}, fmt.Errorf("store: truncated wal entry")
	}
	sigLen := int(binary.BigEndian.Uint32(buf[pos:]))
	pos += 4
	if sigLen < 0 || pos+sigLen > len(buf) {
		return WalEntry{}, fmt.Errorf("store: truncated wal entry")
	}
	e.SignedEntryBytes = append([]byte(nil), buf[pos:pos+sigLen]...)
	pos += sigLen

	if pos+4 > len(buf) {
		return WalEntry{}, fmt.Errorf("store: truncated wal entry")
	}
	stateLen := int(binary.BigEndian.Uint32(buf[pos:]))
	pos += 4
	if stateLen < 0 || pos+stateLen > len(buf) {
		return WalEntry{}, fmt.Errorf("store: truncated wal entry")
	}
	e.MerkleState = append([]byte(nil), buf[pos:pos+stateLen]...)
	pos += stateLen

	if pos+1 > len(buf) {
		return WalEntry{}, fmt.Errorf("store: truncated wal entry")
	}
	e.Committed = buf[pos] != 0
	pos++

	if pos+8 > len(buf) {
		return WalEntry{}, fmt.Errorf("store: truncated wal entry")
	}
	e.TimestampNs = int64(binary.BigEndian.Uint64(buf[pos:]))
	return e, nil
}

// Write persists e, fsyncing before returning (spec §6: "fsync required
// before acknowledging commit").
func (w *PebbleWAL) Write(ctx context.Context, e WalEntry) error {
	return w.db.Set(walKey(e.EntryID), encodeWalEntry(e), pebble.Sync)
}

// Read looks up the WAL entry stored under entryID.
func (w *PebbleWAL) Read(ctx context.Context, entryID uint64) (WalEntry, error) {
	v, closer, err := w.db.Get(walKey(entryID))
	if err != nil {
		return WalEntry{}, fmt.Errorf("%w: entry %d", ErrNotFound, entryID)
	}
	defer closer.Close()
	return decodeWalEntry(v)
}

// Fsync flushes pebble's write-ahead log to stable storage.
func (w *PebbleWAL) Fsync(ctx context.Context) error {
	return w.db.Flush()
}

// Close releases the underlying pebble database.
func (w *PebbleWAL) Close() error { return w.db.Close() }

// PebbleCounters implements CounterStore over a pebble database.
type PebbleCounters struct {
	db *pebble.DB
}

var _ CounterStore = (*PebbleCounters)(nil)

// OpenPebbleCounters opens (or creates) a pebble database at dir for counters.
func OpenPebbleCounters(dir string) (*PebbleCounters, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("store: open counters db: %w", err)
	}
	return &PebbleCounters{db: db}, nil
}

// Get returns the value stored under name, or ok=false if absent.
func (c *PebbleCounters) Get(ctx context.Context, name string) (uint64, bool, error) {
	v, closer, err := c.db.Get(counterKey(name))
	if err != nil {
		return 0, false, nil
	}
	defer closer.Close()
	if len(v) != 8 {
		return 0, false, fmt.Errorf("store: malformed counter %q", name)
	}
	return binary.BigEndian.Uint64(v), true, nil
}

// Set stores value under name.
func (c *PebbleCounters) Set(ctx context.Context, name string, value uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)
	return c.db.Set(counterKey(name), buf[:], pebble.Sync)
}

// Close releases the underlying pebble database.
func (c *PebbleCounters) Close() error { return c.db.Close() }
