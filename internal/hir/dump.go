package hir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented rendering of f, one node per line.
func Dump(w io.Writer, f *File) error {
	d := &dumper{w: w}
	for _, u := range f.Uses {
		if u.Glob {
			d.line(0, "use %s::*", strings.Join(u.Path, "::"))
		} else {
			d.line(0, "use %s as %s", strings.Join(u.Path, "::"), u.Name)
		}
	}
	for _, fn := range f.Fns {
		d.line(0, "fn %s %s", fn.Name, fn.Span)
		for _, p := range fn.Params {
			d.param(1, p)
		}
		d.expr(1, fn.Body)
	}
	return d.err
}

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) line(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (d *dumper) param(depth int, p *Param) {
	mut := ""
	if p.Mutable {
		mut = "mut "
	}
	d.line(depth, "param %s%s: %s", mut, p.Binding, p.Type)
}

func (d *dumper) expr(depth int, e *Expr) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ExprPath:
		d.line(depth, "Path %s %s", strings.Join(e.Segments, "::"), e.Span)
	case ExprLit:
		d.line(depth, "Lit %s %s", e.Syntax, e.Span)
	case ExprMethodCall:
		d.line(depth, "MethodCall .%s %s", e.Method, e.Span)
		d.expr(depth+1, e.Receiver)
		for _, a := range e.Args {
			d.expr(depth+1, a)
		}
	case ExprCall:
		d.line(depth, "Call %s", e.Span)
		d.expr(depth+1, e.Callee)
		for _, a := range e.Args {
			d.expr(depth+1, a)
		}
	case ExprClosure:
		d.line(depth, "Closure %s", e.Span)
		for _, p := range e.Params {
			d.param(depth+1, p)
		}
		d.expr(depth+1, e.Body)
	case ExprBlock:
		d.line(depth, "Block %s", e.Span)
		for _, s := range e.Stmts {
			d.stmt(depth+1, s)
		}
		if e.Tail != nil {
			d.line(depth+1, "tail")
			d.expr(depth+2, e.Tail)
		}
	case ExprAssign:
		d.line(depth, "Assign %s", e.Span)
		d.expr(depth+1, e.Lhs)
		d.expr(depth+1, e.Rhs)
	default:
		d.line(depth, "Other %s %s", e.Syntax, e.Span)
		for _, c := range e.Children {
			d.expr(depth+1, c)
		}
	}
}

func (d *dumper) stmt(depth int, s *Stmt) {
	switch s.Kind {
	case StmtSemi, StmtExpr:
		label := "Semi"
		if s.Kind == StmtExpr {
			label = "Expr"
		}
		d.line(depth, "%s %s", label, s.Span)
		d.expr(depth+1, s.Expr)
	case StmtLet:
		mut := ""
		if s.Let.Mutable {
			mut = "mut "
		}
		d.line(depth, "Let %s%s: %s %s", mut, s.Let.Binding, s.Let.Type, s.Span)
		d.expr(depth+1, s.Let.Init)
	case StmtItem:
		d.line(depth, "Item %s", s.Span)
	default:
		d.line(depth, "Stmt %s", s.Span)
	}
}

func (t *TypeRef) String() string {
	if t == nil {
		return "_"
	}
	switch t.Kind {
	case TypeRefRef:
		if t.Mutable {
			return "&mut " + t.Elem.String()
		}
		return "&" + t.Elem.String()
	case TypeRefPath, TypeRefPrim:
		return strings.Join(t.Segments, "::")
	case TypeRefTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "?"
	}
}
