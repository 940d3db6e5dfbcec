package telemetry

import (
	"fmt"
	"sync"

	logfacade "github.com/luxfi/log"
	"github.com/luxfi/scenekernel/q16"
	"go.uber.org/zap"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// OverflowReporter is the rate-limited reporter named in spec §4.A and
// §5 ("may not be on the hot path"): Tier0 events are always reported,
// Tier1 events are reported for the first 10 occurrences of a field
// then every 100th thereafter, and Tier2 events are never reported
// (silent, diagnostic only).
//
// It is process-scoped with an internal lock, matching spec §9's
// "global mutable state" allowance; Reset clears per-field counters at
// session start.
type OverflowReporter struct {
	mu       sync.Mutex
	logger   logfacade.Logger
	counts   map[string]int
	strict   bool
}

// NewOverflowReporter constructs a reporter that makes its structured
// log calls through logger (spec's ambient logging facade); a nil
// logger is replaced by a no-op logger. Size-rotated file output is
// available through RotatingFileSink for a file-backed logger.
func NewOverflowReporter(logger logfacade.Logger, strict bool) *OverflowReporter {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &OverflowReporter{
		logger: logger,
		counts: make(map[string]int),
		strict: strict,
	}
}

// RotatingFileSink returns a lumberjack.Logger writing to path, rotated
// at maxSizeMB, used as the destination for a file-backed logger
// passed to NewOverflowReporter when persistent overflow audit trails
// are required.
func RotatingFileSink(path string, maxSizeMB int) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 5,
		Compress:   true,
	}
}

// ErrTier0Fatal is the panic value used in strict mode for a Tier0
// overflow (spec §7: "Tier0 in strict mode is fatal").
type ErrTier0Fatal struct {
	Event q16.OverflowEvent
}

func (e ErrTier0Fatal) Error() string {
	return fmt.Sprintf("q16: tier0 overflow in field %q during %q (frame %d)", e.Event.Field, e.Event.Operation, e.Event.FrameID)
}

// Report records an overflow event, applying the tiered rate limit. In
// strict mode a Tier0 event panics with ErrTier0Fatal instead of being
// logged and degraded.
func (r *OverflowReporter) Report(ev q16.OverflowEvent) {
	if ev.Tier == q16.Tier0 && r.strict {
		panic(ErrTier0Fatal{Event: ev})
	}

	switch ev.Tier {
	case q16.Tier0:
		r.log(ev)
	case q16.Tier1:
		r.mu.Lock()
		r.counts[ev.Field]++
		n := r.counts[ev.Field]
		r.mu.Unlock()
		if n <= 10 || n%100 == 0 {
			r.log(ev)
		}
	case q16.Tier2:
		// Silent by design: diagnostic only.
	}
}

func (r *OverflowReporter) log(ev q16.OverflowEvent) {
	r.logger.WithFields(
		zap.String("field", ev.Field),
		zap.String("operation", ev.Operation),
		zap.String("tier", ev.Tier.String()),
		zap.Int64("clamped", int64(ev.Clamped)),
		zap.Uint64("frame_id", ev.FrameID),
	).Warn("q16 overflow")
}

// Reset clears per-field rate-limit counters, called at session start.
func (r *OverflowReporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = make(map[string]int)
}
