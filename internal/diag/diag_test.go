package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	if !b.Add(New(SevError, LowNotImplemented, "one")) || !b.Add(New(SevWarning, LowInfo, "two")) {
		t.Fatalf("bag should accept up to its limit")
	}
	if b.Add(New(SevError, LowInternal, "three")) {
		t.Fatalf("bag over limit should drop")
	}
	if b.Len() != 2 || !b.HasErrors() {
		t.Fatalf("bag state: len=%d hasErrors=%v", b.Len(), b.HasErrors())
	}
}

func TestConsoleReporter(t *testing.T) {
	var buf bytes.Buffer
	r := ConsoleReporter{W: &buf}
	r.Report(New(SevError, LowNotImplemented, "closures are not supported").WithNote("lambda at depth 2"))
	out := buf.String()
	if !strings.Contains(out, "RIL3001") {
		t.Fatalf("report should carry the code, got %q", out)
	}
	if !strings.Contains(out, "closures are not supported") || !strings.Contains(out, "lambda at depth 2") {
		t.Fatalf("report should carry message and notes, got %q", out)
	}
}
