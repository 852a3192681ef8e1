// Package builder recognizes closures that configure a serenity builder
// through a `&mut` parameter and turns them into an ordered description of
// the calls they make.
package builder

import (
	"github.com/DeusData/builder-migrate/internal/source"
)

// ArgKind discriminates Arg.
type ArgKind uint8

const (
	// ArgLiteral is an argument whose source text is reproduced as is.
	ArgLiteral ArgKind = iota
	// ArgNested is a closure argument that is itself a builder closure.
	ArgNested
)

// Arg is one argument of a Call.
type Arg struct {
	Kind ArgKind
	// ArgLiteral: the argument's span, plus its path segments when the
	// argument is a plain path such as `InteractionResponseType::Pong`.
	Span source.Span
	Path []string
	// ArgNested.
	Closure *Closure
}

// Literal returns a literal argument.
func Literal(span source.Span, path []string) Arg {
	return Arg{Kind: ArgLiteral, Span: span, Path: path}
}

// Nested returns a nested closure argument.
func Nested(c *Closure) Arg {
	return Arg{Kind: ArgNested, Span: c.Span, Closure: c}
}

// Call is one method call of a chain.
type Call struct {
	Field string
	Args  []Arg
	Span  source.Span
}

// CallChain is `Receiver.calls[0](..).calls[1](..)...`, calls in source order.
type CallChain struct {
	Receiver string
	// ReceiverType is the builder short name of the receiver, or "" when
	// it was not resolved.
	ReceiverType string
	Calls        []Call
}

// Fields returns the method names of the chain in order.
func (c CallChain) Fields() []string {
	out := make([]string, len(c.Calls))
	for i, call := range c.Calls {
		out[i] = call.Field
	}
	return out
}

// StmtKind discriminates PreludeStmt.
type StmtKind uint8

const (
	// StmtVerbatim is reproduced from source unchanged.
	StmtVerbatim StmtKind = iota
	// StmtChained is a call chain on the closure's own binding.
	StmtChained
)

// PreludeStmt is a statement executed before a closure's terminal chain.
type PreludeStmt struct {
	Kind  StmtKind
	Span  source.Span
	Chain CallChain // StmtChained only
}

// Closure is one recognized builder closure.
type Closure struct {
	BuilderType string
	Binding     string
	Prelude     []PreludeStmt
	Chain       CallChain
	Span        source.Span
}
