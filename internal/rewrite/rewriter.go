// Package rewrite turns recognized builder closures into serenity 0.12
// style construction: `Type::new(required..)` followed by setter calls, or
// a builder-specific shape for responses and components.
package rewrite

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/DeusData/builder-migrate/internal/builder"
	"github.com/DeusData/builder-migrate/internal/source"
)

// Options tune the emitted layout.
type Options struct {
	// MultilineSetters puts every setter call on its own line.
	MultilineSetters bool
}

// Result is the replacement text for one construct.
type Result struct {
	Text  string
	Notes []Note
}

// MachineApplicable reports whether the replacement can be applied
// without review.
func (r Result) MachineApplicable() bool {
	return len(r.Notes) == 0
}

// Rewriter emits replacement text. It holds no per-rewrite state and may be
// shared by concurrent callers.
type Rewriter struct {
	reg  *Registry
	text Stitcher
	opts Options
}

// New returns a Rewriter. A nil registry uses NewRegistry.
func New(reg *Registry, snippets SnippetResolver, opts Options) *Rewriter {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Rewriter{reg: reg, text: NewStitcher(snippets), opts: opts}
}

// RewriteClosure returns the replacement for a closure expression. A
// structural violation in the closure itself is returned as a
// *StructuralError; violations in nested closures leave that nested
// closure as written and add a note.
func (rw *Rewriter) RewriteClosure(c *builder.Closure) (Result, error) {
	e := &Emitter{rw: rw}
	text, err := e.Closure(c)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text, Notes: e.notes}, nil
}

// RewriteStmt returns the replacement for a statement `b.x(..).y(..);`.
func (rw *Rewriter) RewriteStmt(chain builder.CallChain) Result {
	e := &Emitter{rw: rw}
	text := e.chainStmt(chain)
	return Result{Text: text, Notes: e.notes}
}

// Emitter carries the notes of one top-level rewrite through the
// strategies.
type Emitter struct {
	rw    *Rewriter
	notes []Note
}

// Note records a reason the rewrite needs review.
func (e *Emitter) Note(span source.Span, format string, args ...any) {
	e.notes = append(e.notes, Note{Span: span, Message: fmt.Sprintf(format, args...)})
}

// Closure rewrites c with the strategy registered for its type, or the
// generic one.
func (e *Emitter) Closure(c *builder.Closure) (string, error) {
	if s, ok := e.rw.reg.Strategy(c.BuilderType); ok {
		return s(e, c)
	}
	return e.generic(c)
}

// nested rewrites a closure found in argument position. A structural
// violation keeps the closure's original text.
func (e *Emitter) nested(c *builder.Closure) string {
	mark := len(e.notes)
	text, err := e.Closure(c)
	if err == nil {
		return text
	}
	e.notes = e.notes[:mark]
	var se *StructuralError
	if !errors.As(err, &se) {
		se = structural(c.BuilderType, c.Span, "%v", err)
	}
	e.Note(se.Span, "%s left unchanged: %s", se.Builder, se.Reason)
	orig, ok := e.rw.text.Text(c.Span)
	if !ok {
		e.Note(c.Span, "source of %s closure is unavailable", c.BuilderType)
	}
	return orig
}

// Args renders call arguments: literal source text, or the rewrite of
// nested closures.
func (e *Emitter) Args(args []builder.Arg) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, e.arg(a))
	}
	return strings.Join(parts, ", ")
}

func (e *Emitter) arg(a builder.Arg) string {
	switch a.Kind {
	case builder.ArgNested:
		return e.nested(a.Closure)
	case builder.ArgLiteral:
		text, ok := e.rw.text.Text(a.Span)
		if !ok {
			e.Note(a.Span, "argument source is unavailable")
		}
		return text
	}
	return Placeholder
}

type setter struct {
	field string
	args  string
}

// partition splits calls into constructor arguments, in the order of
// required, and setters in call order. The last call of a required field
// wins; a missing one becomes a placeholder.
func (e *Emitter) partition(builderType string, required []string, calls []builder.Call, span source.Span) ([]string, []setter) {
	values := make(map[string]string, len(required))
	var setters []setter
	for _, call := range calls {
		args := e.Args(call.Args)
		if slices.Contains(required, call.Field) {
			values[call.Field] = args
			continue
		}
		setters = append(setters, setter{field: call.Field, args: args})
	}

	ctor := make([]string, 0, len(required))
	for _, field := range required {
		v, ok := values[field]
		if !ok {
			e.Note(span, "%s requires `%s`, which is never set", builderType, field)
			v = Placeholder
		}
		ctor = append(ctor, v)
	}
	return ctor, setters
}

func (e *Emitter) setters(ss []setter) string {
	var b strings.Builder
	for _, s := range ss {
		if e.rw.opts.MultilineSetters {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, ".%s(%s)", s.field, s.args)
	}
	return b.String()
}

func (e *Emitter) generic(c *builder.Closure) (string, error) {
	ctorArgs, setters := e.partition(c.BuilderType, e.rw.reg.Required(c.BuilderType), c.Chain.Calls, c.Span)
	ctor := fmt.Sprintf("%s::new(%s)", c.BuilderType, strings.Join(ctorArgs, ", "))
	return e.assemble(c, ctor, setters), nil
}

// assemble wraps a constructor expression and setters around the closure's
// prelude statements.
func (e *Emitter) assemble(c *builder.Closure, ctor string, setters []setter) string {
	if len(c.Prelude) == 0 {
		return ctor + e.setters(setters)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "{\nlet mut %s = %s;\n", c.Binding, ctor)
	for _, s := range c.Prelude {
		switch s.Kind {
		case builder.StmtVerbatim:
			text, ok := e.rw.text.Text(s.Span)
			if !ok {
				e.Note(s.Span, "statement source is unavailable")
				text += ";"
			}
			b.WriteString(text)
		case builder.StmtChained:
			b.WriteString(e.chainStmt(s.Chain))
		}
		b.WriteString("\n")
	}
	b.WriteString(c.Binding)
	b.WriteString(e.setters(setters))
	b.WriteString("\n}")
	return b.String()
}

// chainStmt renders `b = b.x(..).y(..);`.
func (e *Emitter) chainStmt(chain builder.CallChain) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = %s", chain.Receiver, chain.Receiver)
	for _, call := range chain.Calls {
		fmt.Fprintf(&b, ".%s(%s)", call.Field, e.Args(call.Args))
	}
	b.WriteString(";")
	return b.String()
}
