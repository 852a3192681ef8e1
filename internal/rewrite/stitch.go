package rewrite

import (
	"strings"

	"github.com/DeusData/builder-migrate/internal/source"
)

// Placeholder stands in for source text that could not be recovered.
const Placeholder = "todo!()"

// SnippetResolver maps a span back to the text written at it.
type SnippetResolver interface {
	Snippet(span source.Span) (string, bool)
}

// Stitcher produces argument and statement text for the rewriter.
type Stitcher struct {
	src SnippetResolver
}

// NewStitcher returns a Stitcher reading from src.
func NewStitcher(src SnippetResolver) Stitcher {
	return Stitcher{src: src}
}

// Text returns the trimmed source at span, or Placeholder.
func (s Stitcher) Text(span source.Span) (string, bool) {
	if s.src == nil {
		return Placeholder, false
	}
	text, ok := s.src.Snippet(span)
	if !ok {
		return Placeholder, false
	}
	return strings.TrimSpace(text), true
}
