// Package diag defines diagnostics with attached fix-it suggestions and the
// sinks that collect them.
package diag

import (
	"github.com/DeusData/builder-migrate/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

// WithFix returns a copy of d with a fix made of edits appended.
func (d Diagnostic) WithFix(title string, applicability FixApplicability, edits ...TextEdit) Diagnostic {
	d.Fixes = append(append([]Fix(nil), d.Fixes...), Fix{
		Title:         title,
		Applicability: applicability,
		Edits:         append([]TextEdit(nil), edits...),
	})
	return d
}
