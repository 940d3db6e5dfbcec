package telemetry

import (
	"sync"

	logfacade "github.com/luxfi/log"
	"go.uber.org/zap"
)

// LeakLogger records cross-frame access violations (spec §4.H, §7
// ConsumedContext/CrossFrameLeak): in strict mode the caller is expected
// to panic; in non-strict mode this logger records the violation and
// the caller degrades.
type LeakLogger struct {
	mu     sync.Mutex
	logger logfacade.Logger
	count  int
}

// NewLeakLogger constructs a LeakLogger.
func NewLeakLogger(logger logfacade.Logger) *LeakLogger {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &LeakLogger{logger: logger}
}

// Record logs a cross-frame leak: the frame a caller expected to be
// current, the frame actually current, and an identifier for the
// calling site.
func (l *LeakLogger) Record(expectedFrame, actualFrame uint64, caller string) {
	l.mu.Lock()
	l.count++
	l.mu.Unlock()

	l.logger.WithFields(
		zap.Uint64("expected_frame", expectedFrame),
		zap.Uint64("actual_frame", actualFrame),
		zap.String("caller", caller),
	).Error("cross-frame access")
}

// Count returns the number of leaks recorded so far.
func (l *LeakLogger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Reset clears the recorded count, called at session start.
func (l *LeakLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count = 0
}
