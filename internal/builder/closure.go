package builder

import (
	"github.com/DeusData/builder-migrate/internal/hir"
)

// ParseClosure recognizes `|b| ...` where b is a `&mut` builder and the body
// is a chain on b, or a block of statements ending in such a chain or in b
// itself.
func (c *Classifier) ParseClosure(e *hir.Expr) (*Closure, bool) {
	if e == nil || e.Kind != hir.ExprClosure || len(e.Params) != 1 {
		return nil, false
	}
	param := e.Params[0]
	if param.Binding == "" {
		return nil, false
	}
	t, ok := c.types.ParamType(param)
	if !ok || t.Kind != hir.TyRef || !t.Mutable || t.Elem == nil {
		return nil, false
	}
	builderType, ok := ClassifyType(*t.Elem, c.opts.Target)
	if !ok {
		return nil, false
	}

	scope := &binding{name: param.Binding, builderType: builderType}
	out := &Closure{
		BuilderType: builderType,
		Binding:     param.Binding,
		Span:        e.Span,
	}

	body := e.Body
	if body == nil {
		return nil, false
	}
	switch body.Kind {
	case hir.ExprMethodCall:
		chain, ok := c.terminal(body, scope)
		if !ok {
			return nil, false
		}
		out.Chain = chain
	case hir.ExprBlock:
		for _, s := range body.Stmts {
			out.Prelude = append(out.Prelude, c.preludeStmt(s, scope))
		}
		switch {
		case body.Tail == nil:
			return nil, false
		case body.Tail.Ident() == param.Binding:
			out.Chain = CallChain{Receiver: param.Binding, ReceiverType: builderType}
		case body.Tail.Kind == hir.ExprMethodCall:
			chain, ok := c.terminal(body.Tail, scope)
			if !ok {
				return nil, false
			}
			out.Chain = chain
		default:
			return nil, false
		}
	default:
		return nil, false
	}
	return out, true
}

// terminal unravels the closure's final chain, which must start at the
// closure's own binding.
func (c *Classifier) terminal(e *hir.Expr, scope *binding) (CallChain, bool) {
	chain, ok := c.unravel(e, c.opts.StrictReceivers, scope)
	if !ok || chain.Receiver != scope.name {
		return CallChain{}, false
	}
	return chain, true
}

func (c *Classifier) preludeStmt(s *hir.Stmt, scope *binding) PreludeStmt {
	if chain, ok := c.stmtChain(s, c.opts.StrictReceivers, scope); ok && chain.Receiver == scope.name {
		return PreludeStmt{Kind: StmtChained, Span: s.Span, Chain: chain}
	}
	return PreludeStmt{Kind: StmtVerbatim, Span: s.Span}
}
