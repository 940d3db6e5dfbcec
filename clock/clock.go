// Package clock provides a wall-clock-free, jump-free monotonic
// timebase. Every component that needs "now" or "elapsed" takes a
// Clock rather than calling time.Now() directly, matching the
// teacher's convention of injecting small capability interfaces
// instead of reaching for ambient global state.
package clock

import (
	"errors"
	"time"
)

// ErrPlatformUnsupported is returned by New when the runtime has no
// monotonic clock source. Per spec §4.C/§7, this is a fail-closed
// condition: the process must not fall back to wall-clock time.
var ErrPlatformUnsupported = errors.New("clock: monotonic clock unsupported on this platform")

// Clock is the capability interface consumed throughout scenekernel.
type Clock interface {
	NowMS() int64
	NowNS() int64
	NowSeconds() float64
	ElapsedMS(since int64) int64
	ElapsedNS(since int64) int64
}

// Monotonic is the default Clock, backed by time.Now()'s monotonic
// reading. Go's time.Now() attaches a monotonic reading to every
// timestamp on all platforms the Go runtime supports; there is no
// supported Go platform without one, so New never actually returns
// ErrPlatformUnsupported today, but the check is kept at the boundary
// per spec so a future restricted build target fails closed rather
// than silently degrading to wall-clock semantics.
type Monotonic struct {
	epoch time.Time
}

var _ Clock = (*Monotonic)(nil)

// New returns a Monotonic clock anchored at construction time.
func New() (*Monotonic, error) {
	epoch := time.Now()
	if epoch.IsZero() {
		return nil, ErrPlatformUnsupported
	}
	return &Monotonic{epoch: epoch}, nil
}

// Must panics if New fails; used by top-level wiring (e.g. cmd) where
// a missing monotonic clock is an unrecoverable startup condition.
func Must() *Monotonic {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// NowMS returns milliseconds elapsed since the clock's anchor.
func (m *Monotonic) NowMS() int64 {
	return time.Since(m.epoch).Milliseconds()
}

// NowNS returns nanoseconds elapsed since the clock's anchor.
func (m *Monotonic) NowNS() int64 {
	return time.Since(m.epoch).Nanoseconds()
}

// NowSeconds returns seconds elapsed since the clock's anchor.
func (m *Monotonic) NowSeconds() float64 {
	return time.Since(m.epoch).Seconds()
}

// ElapsedMS returns the number of milliseconds between since (a prior
// NowMS() reading) and now.
func (m *Monotonic) ElapsedMS(since int64) int64 {
	return m.NowMS() - since
}

// ElapsedNS returns the number of nanoseconds between since (a prior
// NowNS() reading) and now.
func (m *Monotonic) ElapsedNS(since int64) int64 {
	return m.NowNS() - since
}
