package typeck

import (
	"slices"

	"github.com/DeusData/builder-migrate/internal/hir"
)

// Check computes types for every function body in f.
func Check(f *hir.File, cat *Catalogue) *Results {
	c := &checker{
		cat:  cat,
		uses: NewUseMap(f.Uses),
		res:  newResults(),
	}
	for _, fn := range f.Fns {
		c.fn(fn)
	}
	return c.res
}

type checker struct {
	cat      *Catalogue
	uses     *UseMap
	res      *Results
	scopes   []map[string]hir.Ty
	generics []string
}

func (c *checker) push() {
	c.scopes = append(c.scopes, map[string]hir.Ty{})
}

func (c *checker) pop() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// bind records name in the innermost scope. An unknown type still shadows
// outer bindings of the same name.
func (c *checker) bind(name string, t hir.Ty) {
	if name == "" || len(c.scopes) == 0 {
		return
	}
	c.scopes[len(c.scopes)-1][name] = t
}

func (c *checker) lookup(name string) hir.Ty {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i][name]; ok {
			return t
		}
	}
	return hir.Ty{}
}

func (c *checker) fn(fn *hir.Fn) {
	c.generics = fn.Generics
	c.push()
	for _, p := range fn.Params {
		t := c.typeRef(p.Type)
		c.res.setParam(p, t)
		c.bind(p.Binding, t)
	}
	c.expr(fn.Body, nil)
	c.pop()
	c.generics = nil
}

func (c *checker) typeRef(tr *hir.TypeRef) hir.Ty {
	if tr == nil {
		return hir.Ty{}
	}
	switch tr.Kind {
	case hir.TypeRefRef:
		elem := c.typeRef(tr.Elem)
		return hir.Ref(elem, tr.Mutable)
	case hir.TypeRefPrim:
		return hir.Ty{Kind: hir.TyPrim, Name: tr.Segments[0]}
	case hir.TypeRefTuple:
		t := hir.Ty{Kind: hir.TyTuple}
		for _, e := range tr.Elems {
			t.Elems = append(t.Elems, c.typeRef(e))
		}
		return t
	case hir.TypeRefPath:
		if len(tr.Segments) == 0 {
			return hir.Ty{}
		}
		if len(tr.Segments) == 1 && slices.Contains(c.generics, tr.Segments[0]) {
			return hir.Ty{Kind: hir.TyParam, Name: tr.Segments[0]}
		}
		if tr.Segments[0] == "Self" {
			return hir.Ty{}
		}
		return resolvePath(c.cat, c.uses, tr.Segments)
	}
	return hir.Ty{}
}

// isBuilder reports whether t, after peeling references, lives in the
// builder module.
func (c *checker) isBuilder(t hir.Ty) bool {
	p := t.Peel()
	return p.Kind == hir.TyAdt && p.Def.Crate == c.cat.Crate &&
		len(p.Def.Data) >= 2 && p.Def.Data[0] == c.cat.Module
}

// expr types e. expected is the builder a closure's parameter is known to
// receive from the enclosing call, or nil.
func (c *checker) expr(e *hir.Expr, expected *hir.Ty) {
	if e == nil {
		return
	}
	switch e.Kind {
	case hir.ExprPath:
		if e.IsSingleIdent() {
			c.res.setExpr(e, c.lookup(e.Segments[0]))
		}
	case hir.ExprMethodCall:
		c.expr(e.Receiver, nil)
		recv, _ := c.res.ExprType(e.Receiver)
		c.args(recv.ShortName(), e.Method, e.Args)
		if c.isBuilder(recv) {
			c.res.setExpr(e, hir.Ref(recv.Peel(), true))
		}
	case hir.ExprCall:
		c.expr(e.Callee, nil)
		var receiver, method string
		if e.Callee != nil && e.Callee.Kind == hir.ExprPath {
			segs := e.Callee.Segments
			method = segs[len(segs)-1]
			if len(segs) >= 2 {
				receiver = segs[len(segs)-2]
			}
			if len(segs) >= 2 && (method == "new" || method == "default") {
				c.res.setExpr(e, resolvePath(c.cat, c.uses, segs[:len(segs)-1]))
			}
		}
		c.args(receiver, method, e.Args)
	case hir.ExprClosure:
		c.closure(e, expected)
	case hir.ExprBlock:
		c.push()
		for _, s := range e.Stmts {
			c.stmt(s)
		}
		c.expr(e.Tail, nil)
		if e.Tail != nil {
			if t, ok := c.res.ExprType(e.Tail); ok {
				c.res.setExpr(e, t)
			}
		}
		c.pop()
	case hir.ExprAssign:
		c.expr(e.Rhs, nil)
		c.expr(e.Lhs, nil)
	case hir.ExprLit, hir.ExprOther:
		for _, ch := range e.Children {
			c.expr(ch, nil)
		}
	}
}

func (c *checker) args(receiver, method string, args []*hir.Expr) {
	for i, a := range args {
		if a == nil {
			continue
		}
		var expected *hir.Ty
		if a.Kind == hir.ExprClosure && method != "" {
			if name, ok := c.cat.Lookup(receiver, method, i); ok {
				if t, ok := c.cat.BuilderTy(name); ok {
					ref := hir.Ref(t, true)
					expected = &ref
				}
			}
		}
		c.expr(a, expected)
	}
}

func (c *checker) closure(e *hir.Expr, expected *hir.Ty) {
	c.push()
	for _, p := range e.Params {
		var t hir.Ty
		switch {
		case p.Type != nil:
			t = c.typeRef(p.Type)
		case expected != nil && len(e.Params) == 1:
			t = *expected
		}
		c.res.setParam(p, t)
		c.bind(p.Binding, t)
	}
	c.expr(e.Body, nil)
	c.pop()
}

func (c *checker) stmt(s *hir.Stmt) {
	switch s.Kind {
	case hir.StmtSemi, hir.StmtExpr:
		c.expr(s.Expr, nil)
	case hir.StmtLet:
		c.expr(s.Let.Init, nil)
		t := c.typeRef(s.Let.Type)
		if !t.Known() && s.Let.Init != nil {
			t, _ = c.res.ExprType(s.Let.Init)
		}
		c.bind(s.Let.Binding, t)
	}
}
