package diag

// Note attaches secondary context to a diagnostic.
type Note struct {
	Msg string
}

// Diagnostic is one reportable condition.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Notes    []Note
}

// New constructs a diagnostic without notes.
func New(sev Severity, code Code, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Message: msg}
}

// WithNote returns a copy carrying an extra note.
func (d Diagnostic) WithNote(msg string) Diagnostic {
	d.Notes = append(append([]Note(nil), d.Notes...), Note{Msg: msg})
	return d
}
