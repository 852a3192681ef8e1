package rewrite

import (
	"fmt"

	"github.com/DeusData/builder-migrate/internal/source"
)

// StructuralError reports a recognized builder whose calls do not fit the
// shape its rewrite strategy produces. The builder is left as written.
type StructuralError struct {
	Builder string
	Reason  string
	Span    source.Span
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s", e.Builder, e.Reason)
}

func structural(builder string, span source.Span, format string, args ...any) *StructuralError {
	return &StructuralError{Builder: builder, Reason: fmt.Sprintf(format, args...), Span: span}
}

// Note explains why a rewrite is not fully mechanical.
type Note struct {
	Span    source.Span
	Message string
}
