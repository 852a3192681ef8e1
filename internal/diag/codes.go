package diag

import (
	"fmt"
)

// Code identifies a kind of diagnostic.
type Code uint16

const (
	UnknownCode Code = 0
	// BuilderClosure marks a closure-style builder with a replacement.
	BuilderClosure Code = 1
	// BuilderUnchanged marks a closure-style builder that could not be
	// rewritten.
	BuilderUnchanged Code = 2
)

var codeDescription = map[Code]string{
	UnknownCode:      "Unknown error",
	BuilderClosure:   "Closure-style builder",
	BuilderUnchanged: "Closure-style builder left unchanged",
}

// ID returns the stable identifier printed with diagnostics, e.g. BM0001.
func (c Code) ID() string {
	return fmt.Sprintf("BM%04d", uint16(c))
}

func (c Code) String() string {
	return c.ID()
}

// Title returns a short human description.
func (c Code) Title() string {
	if d, ok := codeDescription[c]; ok {
		return d
	}
	return codeDescription[UnknownCode]
}

// ParseCode converts an identifier such as BM0002 back to a Code.
func ParseCode(id string) (Code, bool) {
	var n uint16
	if _, err := fmt.Sscanf(id, "BM%04d", &n); err != nil {
		return UnknownCode, false
	}
	c := Code(n)
	if _, ok := codeDescription[c]; !ok {
		return UnknownCode, false
	}
	return c, true
}
