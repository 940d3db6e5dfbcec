// Package frame implements the frame-ownership and concurrency
// contract (spec §4.H, §5): a monotonically increasing FrameID, a
// FrameContext that owns its immutable inputs and mutable outputs for
// exactly one frame, cross-frame leak detection, and a reentrancy
// guard for the serial dispatch queue's outer entry points.
//
// The single-writer-owns-all-substate discipline here mirrors the
// teacher's mutex-guarded types (dag/witness.Cache, quorum.Static):
// one struct, one mutex, a small surface of high-level operations.
package frame

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/luxfi/scenekernel/telemetry"
)

// ErrConsumedContext is returned when a FrameContext is accessed after
// consume() has been called.
var ErrConsumedContext = errors.New("frame: context already consumed")

// ErrCrossFrameLeak is returned when the task-local current frame
// differs from the frame being asserted.
var ErrCrossFrameLeak = errors.New("frame: cross-frame access")

// ErrReentrant is returned (non-strict) or panicked (strict) when a
// named guard is entered concurrently.
var ErrReentrant = errors.New("frame: reentrant critical section")

// ErrOutOfOrder is returned when a frame result is applied out of
// sequence relative to the session's last_frame_id.
var ErrOutOfOrder = errors.New("frame: out-of-order frame application")

// IDGenerator produces strictly-increasing FrameIDs. The counter is
// one of the four process-scoped globals spec §9 permits; callers
// normally hold one instance per session rather than using a package
// global, so that Reset() at session start is well-defined.
type IDGenerator struct {
	counter uint64
}

// Next returns the next FrameID, starting at 1.
func (g *IDGenerator) Next() uint64 {
	return atomic.AddUint64(&g.counter, 1)
}

// Reset zeroes the counter, called at session start.
func (g *IDGenerator) Reset() {
	atomic.StoreUint64(&g.counter, 0)
}

// Context owns a single frame's immutable inputs and mutable outputs.
// Once Consume is called the context is dead; any further access
// returns ErrConsumedContext (or panics, in strict mode).
type Context struct {
	mu sync.Mutex

	id        uint64
	sessionID string
	strict    bool
	leakLog   *telemetry.LeakLogger

	consumed bool

	// Mutable outputs, populated during the frame and read back by
	// consume().
	Qualities      map[string]float64
	GateDecisions  map[string]bool
	OverflowEvents []string
	PathTrace      []string
}

// NewContext constructs a live FrameContext for id, owned by sessionID.
func NewContext(id uint64, sessionID string, strict bool, leakLog *telemetry.LeakLogger) *Context {
	return &Context{
		id:            id,
		sessionID:     sessionID,
		strict:        strict,
		leakLog:       leakLog,
		Qualities:     make(map[string]float64),
		GateDecisions: make(map[string]bool),
	}
}

// ID returns the frame's id, always readable even after consumption
// (it is identity, not a mutable output).
func (c *Context) ID() uint64 { return c.id }

// checkAlive returns ErrConsumedContext if the context has already been
// consumed, panicking instead in strict mode.
func (c *Context) checkAlive() error {
	if !c.consumed {
		return nil
	}
	if c.strict {
		panic(ErrConsumedContext)
	}
	return ErrConsumedContext
}

// RecordQuality records a named quality output for this frame.
func (c *Context) RecordQuality(name string, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkAlive(); err != nil {
		return err
	}
	c.Qualities[name] = value
	return nil
}

// RecordGateDecision records a named gate decision output.
func (c *Context) RecordGateDecision(name string, ok bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkAlive(); err != nil {
		return err
	}
	c.GateDecisions[name] = ok
	return nil
}

// Consume marks the context dead and returns its accumulated outputs.
// Any further access after Consume returns ErrConsumedContext.
func (c *Context) Consume() (qualities map[string]float64, gates map[string]bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkAlive(); err != nil {
		return nil, nil, err
	}
	c.consumed = true
	return c.Qualities, c.GateDecisions, nil
}

// AssertInFrame checks that actual matches the expected id, recording
// a leak (strict: panic, non-strict: log) on mismatch. This models the
// task-local "current frame" guard from spec §4.H using an explicit
// parameter rather than a goroutine-local, since Go has no first-class
// thread-local storage — the equivalent-strategy allowance spec §9
// explicitly grants.
func AssertInFrame(expected, actual uint64, caller string, strict bool, leakLog *telemetry.LeakLogger) error {
	if expected == actual {
		return nil
	}
	if leakLog != nil {
		leakLog.Record(expected, actual, caller)
	}
	if strict {
		panic(ErrCrossFrameLeak)
	}
	return ErrCrossFrameLeak
}
