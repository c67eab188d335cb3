package trace

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// WriterTracer streams events to an io.Writer, one line per event.
type WriterTracer struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

// NewWriterTracer constructs a tracer writing events at or below level to w.
func NewWriterTracer(w io.Writer, level Level) *WriterTracer {
	return &WriterTracer{w: w, level: level}
}

// Emit writes one formatted event line.
func (t *WriterTracer) Emit(ev Event) {
	if !t.Enabled(ev.Level) {
		return
	}
	when := ev.Time
	if when.IsZero() {
		when = time.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "%s [%s] %s: %s\n", when.Format(time.RFC3339Nano), ev.Level, ev.Phase, ev.Msg)
}

// Level returns the configured level.
func (t *WriterTracer) Level() Level { return t.level }

// Enabled reports whether events at l are recorded.
func (t *WriterTracer) Enabled(l Level) bool { return l != LevelOff && l <= t.level }
