package trace

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"off": LevelOff, "phase": LevelPhase, "detail": LevelDetail} {
		got, ok := ParseLevel(in)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParseLevel("chatty"); ok {
		t.Fatalf("unknown level should not parse")
	}
}

func TestWriterTracerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := NewWriterTracer(&buf, LevelPhase)
	tr.Emit(Event{Level: LevelPhase, Phase: "func", Msg: "compiled f"})
	tr.Emit(Event{Level: LevelDetail, Phase: "repr", Msg: "dropped"})
	out := buf.String()
	if !strings.Contains(out, "compiled f") {
		t.Fatalf("phase event should be recorded, got %q", out)
	}
	if strings.Contains(out, "dropped") {
		t.Fatalf("detail event should be filtered at phase level")
	}
}

func TestNopNeverEnabled(t *testing.T) {
	if Nop.Enabled(LevelPhase) || Nop.Enabled(LevelDetail) {
		t.Fatalf("nop tracer must report disabled")
	}
}
