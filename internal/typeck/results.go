package typeck

import (
	"github.com/DeusData/builder-migrate/internal/hir"
)

// Results holds the types computed for one file.
type Results struct {
	exprs  map[hir.HirID]hir.Ty
	params map[hir.HirID]hir.Ty
}

func newResults() *Results {
	return &Results{
		exprs:  make(map[hir.HirID]hir.Ty),
		params: make(map[hir.HirID]hir.Ty),
	}
}

// ExprType returns the type recorded for e.
func (r *Results) ExprType(e *hir.Expr) (hir.Ty, bool) {
	if e == nil {
		return hir.Ty{}, false
	}
	t, ok := r.exprs[e.ID]
	return t, ok
}

// ParamType returns the type recorded for p.
func (r *Results) ParamType(p *hir.Param) (hir.Ty, bool) {
	if p == nil {
		return hir.Ty{}, false
	}
	t, ok := r.params[p.ID]
	return t, ok
}

// Len returns the number of typed expressions and parameters.
func (r *Results) Len() int {
	return len(r.exprs) + len(r.params)
}

func (r *Results) setExpr(e *hir.Expr, t hir.Ty) {
	if t.Known() {
		r.exprs[e.ID] = t
	}
}

func (r *Results) setParam(p *hir.Param, t hir.Ty) {
	if t.Known() {
		r.params[p.ID] = t
	}
}
