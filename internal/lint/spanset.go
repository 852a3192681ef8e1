package lint

import (
	"github.com/DeusData/builder-migrate/internal/source"
)

// spanSet records spans already rewritten in one function.
type spanSet struct {
	seen  map[source.Span]struct{}
	spans []source.Span
}

func newSpanSet() *spanSet {
	return &spanSet{seen: make(map[source.Span]struct{})}
}

func (s *spanSet) add(sp source.Span) {
	if _, ok := s.seen[sp]; ok {
		return
	}
	s.seen[sp] = struct{}{}
	s.spans = append(s.spans, sp)
}

// covers reports whether sp lies inside a recorded span of the same context.
func (s *spanSet) covers(sp source.Span) bool {
	if _, ok := s.seen[sp]; ok {
		return true
	}
	for _, done := range s.spans {
		if done.Ctxt == sp.Ctxt && done.Contains(sp) {
			return true
		}
	}
	return false
}
