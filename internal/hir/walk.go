package hir

// Visitor receives expressions and statements in depth-first pre-order.
// Returning false from either method skips the node's children.
type Visitor interface {
	VisitExpr(e *Expr) bool
	VisitStmt(s *Stmt) bool
}

// WalkExpr traverses e and everything below it.
func WalkExpr(v Visitor, e *Expr) {
	if e == nil || !v.VisitExpr(e) {
		return
	}
	switch e.Kind {
	case ExprMethodCall:
		WalkExpr(v, e.Receiver)
		for _, a := range e.Args {
			WalkExpr(v, a)
		}
	case ExprCall:
		WalkExpr(v, e.Callee)
		for _, a := range e.Args {
			WalkExpr(v, a)
		}
	case ExprClosure:
		WalkExpr(v, e.Body)
	case ExprBlock:
		for _, s := range e.Stmts {
			WalkStmt(v, s)
		}
		WalkExpr(v, e.Tail)
	case ExprAssign:
		WalkExpr(v, e.Lhs)
		WalkExpr(v, e.Rhs)
	case ExprOther:
		for _, c := range e.Children {
			WalkExpr(v, c)
		}
	}
}

// WalkStmt traverses s and everything below it.
func WalkStmt(v Visitor, s *Stmt) {
	if s == nil || !v.VisitStmt(s) {
		return
	}
	switch s.Kind {
	case StmtSemi, StmtExpr:
		WalkExpr(v, s.Expr)
	case StmtLet:
		WalkExpr(v, s.Let.Init)
	}
}
