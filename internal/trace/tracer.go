// Package trace provides lightweight phase tracing for the lowering engine.
// Implementations must be cheap when disabled: callers guard event
// construction behind Enabled().
package trace

import "time"

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff Level = iota
	// LevelPhase emits per-function and per-unit boundaries.
	LevelPhase
	// LevelDetail emits per-node events (representation cache fills,
	// constant cache hits).
	LevelDetail
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelPhase:
		return "phase"
	case LevelDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "", "off":
		return LevelOff, true
	case "phase":
		return LevelPhase, true
	case "detail":
		return LevelDetail, true
	default:
		return LevelOff, false
	}
}

// Event is one trace record.
type Event struct {
	Time  time.Time
	Level Level
	Phase string
	Msg   string
}

// Tracer is the interface for emitting trace events.
type Tracer interface {
	// Emit records a trace event. Must be goroutine-safe.
	Emit(ev Event)

	// Level returns the current tracing level.
	Level() Level

	// Enabled returns true if events at l would be recorded.
	Enabled(l Level) bool
}
