package frame

import "sync"

// ReentrancyGuard wraps a named critical section. A second concurrent
// entry under the same name is a fatal precondition violation in
// strict mode, or returns ErrReentrant otherwise (spec §4.H).
type ReentrancyGuard struct {
	mu     sync.Mutex
	active map[string]bool
	strict bool
}

// NewReentrancyGuard constructs a guard.
func NewReentrancyGuard(strict bool) *ReentrancyGuard {
	return &ReentrancyGuard{active: make(map[string]bool), strict: strict}
}

// Enter marks name active, returning a release function to call on
// exit (typically via defer). If name is already active, Enter panics
// in strict mode or returns ErrReentrant otherwise; the returned
// release function is nil in the error case.
func (g *ReentrancyGuard) Enter(name string) (release func(), err error) {
	g.mu.Lock()
	if g.active[name] {
		g.mu.Unlock()
		if g.strict {
			panic(ErrReentrant)
		}
		return nil, ErrReentrant
	}
	g.active[name] = true
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.active, name)
		g.mu.Unlock()
	}, nil
}

// ThreadVerifier captures the expected "thread" (in Go terms: the
// single goroutine permitted to drive the serial dispatch queue) and
// asserts every public entry point runs on it. Go has no portable OS
// thread id; the verifier instead captures a caller-supplied token at
// init (e.g. a goroutine-local marker threaded explicitly through
// context) and compares it on every call, per spec §9's allowance for
// an equivalent strategy to a thread-local.
type ThreadVerifier struct {
	mu       sync.Mutex
	expected string
	set      bool
	strict   bool
}

// NewThreadVerifier constructs a verifier with no expected token set
// yet; the first Assert call establishes it.
func NewThreadVerifier(strict bool) *ThreadVerifier {
	return &ThreadVerifier{strict: strict}
}

// Assert checks token against the captured expected token, capturing
// it on first use. Returns ErrCrossFrameLeak (panicking in strict mode)
// on mismatch.
func (v *ThreadVerifier) Assert(token string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.set {
		v.expected = token
		v.set = true
		return nil
	}
	if v.expected != token {
		if v.strict {
			panic(ErrCrossFrameLeak)
		}
		return ErrCrossFrameLeak
	}
	return nil
}
