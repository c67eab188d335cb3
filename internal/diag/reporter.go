package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter is the minimal contract for receiving diagnostics from phases.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter stores diagnostics into a Bag.
type BagReporter struct {
	Bag *Bag
}

func (r BagReporter) Report(d Diagnostic) { r.Bag.Add(d) }

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

var (
	errorColor = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	infoColor  = color.New(color.FgCyan)
	codeColor  = color.New(color.Faint)
)

// ConsoleReporter renders diagnostics to a writer, one line per diagnostic
// plus indented notes.
type ConsoleReporter struct {
	W io.Writer
}

func (r ConsoleReporter) Report(d Diagnostic) {
	sev := d.Severity.String()
	switch d.Severity {
	case SevError:
		sev = errorColor.Sprint(sev)
	case SevWarning:
		sev = warnColor.Sprint(sev)
	default:
		sev = infoColor.Sprint(sev)
	}
	fmt.Fprintf(r.W, "%s %s: %s\n", sev, codeColor.Sprint(d.Code.String()), d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(r.W, "  note: %s\n", n.Msg)
	}
}
