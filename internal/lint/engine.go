// Package lint drives the builder engine over lowered Rust files and turns
// each rewrite into a diagnostic carrying one fix.
package lint

import (
	"errors"

	"github.com/DeusData/builder-migrate/internal/builder"
	"github.com/DeusData/builder-migrate/internal/hir"
	"github.com/DeusData/builder-migrate/internal/rewrite"
	"github.com/DeusData/builder-migrate/internal/source"
)

// Options configure classification and output layout.
type Options struct {
	Target           builder.Target
	StrictReceivers  bool
	MultilineSetters bool
}

// Engine classifies and rewrites single expressions of one file.
type Engine struct {
	cls *builder.Classifier
	rw  *rewrite.Rewriter
}

// NewEngine returns an Engine. A nil registry uses the built-in table.
func NewEngine(types builder.TypeResolver, snippets rewrite.SnippetResolver, reg *rewrite.Registry, opts Options) *Engine {
	return &Engine{
		cls: builder.NewClassifier(types, builder.Options{
			Target:          opts.Target,
			StrictReceivers: opts.StrictReceivers,
		}),
		rw: rewrite.New(reg, snippets, rewrite.Options{MultilineSetters: opts.MultilineSetters}),
	}
}

// Match is a builder found by the engine together with its rewrite.
type Match struct {
	Span    source.Span
	Builder string
	Result  rewrite.Result
}

// MatchExpr classifies e and rewrites it. It returns nil, nil when e is not
// a builder closure and a *rewrite.StructuralError when it is one whose body
// cannot be rewritten.
func (en *Engine) MatchExpr(e *hir.Expr) (*Match, error) {
	c, ok := en.cls.ParseClosure(e)
	if !ok {
		return nil, nil
	}
	res, err := en.rw.RewriteClosure(c)
	if err != nil {
		var se *rewrite.StructuralError
		if !errors.As(err, &se) {
			se = &rewrite.StructuralError{Builder: c.BuilderType, Reason: err.Error(), Span: e.Span}
		}
		return nil, se
	}
	return &Match{Span: c.Span, Builder: c.BuilderType, Result: res}, nil
}

// MatchStmt reports whether s is a by-reference setter chain on a builder
// binding and returns its by-value rewrite.
func (en *Engine) MatchStmt(s *hir.Stmt) (*Match, bool) {
	chain, ok := en.cls.StmtChain(s)
	if !ok {
		return nil, false
	}
	return &Match{Span: s.Span, Builder: chain.ReceiverType, Result: en.rw.RewriteStmt(chain)}, true
}

// ClassifyAndRewrite returns the span and replacement text of e when e is
// a builder closure that rewrites cleanly.
func (en *Engine) ClassifyAndRewrite(e *hir.Expr) (source.Span, string, bool) {
	m, err := en.MatchExpr(e)
	if err != nil || m == nil {
		return source.Span{}, "", false
	}
	return m.Span, m.Result.Text, true
}
