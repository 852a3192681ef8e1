package diag

import (
	"github.com/DeusData/builder-migrate/internal/source"
)

// FixApplicability says whether a fix may be applied without review.
type FixApplicability uint8

const (
	// FixApplicabilityAlwaysSafe fixes are applied by `fix --all`.
	FixApplicabilityAlwaysSafe FixApplicability = iota
	// FixApplicabilityNeedsReview fixes compile only after a human looks
	// at them, e.g. because a placeholder was emitted.
	FixApplicabilityNeedsReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilityNeedsReview:
		return "needs-review"
	}
	return "unknown"
}

// TextEdit replaces the text at Span with NewText. OldText, when set, must
// match the current content for the edit to apply.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// Fix is a named set of edits.
type Fix struct {
	ID            string
	Title         string
	Applicability FixApplicability
	Edits         []TextEdit
}
