package builder

import (
	"github.com/DeusData/builder-migrate/internal/hir"
)

// TypeResolver answers type queries about host tree nodes.
type TypeResolver interface {
	ExprType(e *hir.Expr) (hir.Ty, bool)
	ParamType(p *hir.Param) (hir.Ty, bool)
}

// Options tune classification.
type Options struct {
	Target Target
	// StrictReceivers requires the receiver at the base of a closure's
	// chains to resolve to a builder type.
	StrictReceivers bool
}

// Classifier recognizes builder closures and call chains.
type Classifier struct {
	types TypeResolver
	opts  Options
}

// NewClassifier returns a Classifier querying types. A zero Target defaults
// to DefaultTarget.
func NewClassifier(types TypeResolver, opts Options) *Classifier {
	if opts.Target == (Target{}) {
		opts.Target = DefaultTarget
	}
	return &Classifier{types: types, opts: opts}
}

// binding is the closure parameter in scope while its body is parsed.
type binding struct {
	name        string
	builderType string
}

// UnravelChain turns a method call expression into a chain.
func (c *Classifier) UnravelChain(e *hir.Expr) (CallChain, bool) {
	return c.unravel(e, c.opts.StrictReceivers, nil)
}

// StmtChain recognizes a statement `b.x(..).y(..);` or `b = b.x(..);` on a
// receiver whose type is a builder. The receiver type is always required.
func (c *Classifier) StmtChain(s *hir.Stmt) (CallChain, bool) {
	return c.stmtChain(s, true, nil)
}

func (c *Classifier) stmtChain(s *hir.Stmt, strict bool, scope *binding) (CallChain, bool) {
	if s == nil || s.Kind != hir.StmtSemi || s.Expr == nil {
		return CallChain{}, false
	}
	e := s.Expr
	switch e.Kind {
	case hir.ExprMethodCall:
		return c.unravel(e, strict, scope)
	case hir.ExprAssign:
		if e.Rhs == nil || e.Rhs.Kind != hir.ExprMethodCall {
			return CallChain{}, false
		}
		chain, ok := c.unravel(e.Rhs, strict, scope)
		if !ok || e.Lhs.Ident() != chain.Receiver {
			return CallChain{}, false
		}
		return chain, true
	}
	return CallChain{}, false
}

// unravel descends into the receiver and appends each call on the way back
// up, so the calls end up in source order.
func (c *Classifier) unravel(e *hir.Expr, strict bool, scope *binding) (CallChain, bool) {
	if e == nil || e.Kind != hir.ExprMethodCall || e.Receiver == nil {
		return CallChain{}, false
	}

	var chain CallChain
	recv := e.Receiver
	switch {
	case recv.Kind == hir.ExprMethodCall:
		var ok bool
		chain, ok = c.unravel(recv, strict, scope)
		if !ok {
			return CallChain{}, false
		}
	case recv.IsSingleIdent():
		chain = CallChain{Receiver: recv.Ident()}
		if scope != nil && scope.name == chain.Receiver {
			chain.ReceiverType = scope.builderType
		} else if t, ok := c.types.ExprType(recv); ok {
			chain.ReceiverType, _ = ClassifyType(t, c.opts.Target)
		}
		if strict && chain.ReceiverType == "" {
			return CallChain{}, false
		}
	default:
		return CallChain{}, false
	}

	call := Call{Field: e.Method, Span: e.Span, Args: make([]Arg, 0, len(e.Args))}
	for _, a := range e.Args {
		call.Args = append(call.Args, c.arg(a))
	}
	chain.Calls = append(chain.Calls, call)
	return chain, true
}

func (c *Classifier) arg(a *hir.Expr) Arg {
	if nested, ok := c.ParseClosure(a); ok {
		return Nested(nested)
	}
	var path []string
	if a.Kind == hir.ExprPath {
		path = a.Segments
	}
	return Literal(a.Span, path)
}
