// Package hir is the host expression tree the builder engine classifies.
// It is lowered from tree-sitter-rust parse trees and keeps only the shapes
// the engine and the type table look at; everything else is an opaque
// ExprOther node whose sub-expressions stay reachable for traversal.
package hir

import (
	"github.com/DeusData/builder-migrate/internal/source"
)

// HirID identifies a node inside one lowered file.
type HirID uint32

// ExprKind discriminates Expr.
type ExprKind uint8

const (
	ExprOther ExprKind = iota
	ExprPath
	ExprLit
	ExprMethodCall
	ExprCall
	ExprClosure
	ExprBlock
	ExprAssign
)

var exprKindNames = [...]string{
	ExprOther:      "Other",
	ExprPath:       "Path",
	ExprLit:        "Lit",
	ExprMethodCall: "MethodCall",
	ExprCall:       "Call",
	ExprClosure:    "Closure",
	ExprBlock:      "Block",
	ExprAssign:     "Assign",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "Unknown"
}

// Expr is one expression. Which fields are set depends on Kind.
type Expr struct {
	ID   HirID
	Kind ExprKind
	Span source.Span

	// ExprPath: path segments, e.g. ["b"] or ["CreateEmbed", "new"].
	Segments []string

	// ExprMethodCall: Receiver.Method(Args...).
	Receiver *Expr
	Method   string
	// ExprMethodCall and ExprCall arguments, in source order.
	Args []*Expr

	// ExprCall: Callee(Args...).
	Callee *Expr

	// ExprClosure.
	Params []*Param
	Body   *Expr

	// ExprBlock.
	Stmts []*Stmt
	Tail  *Expr

	// ExprAssign: Lhs = Rhs.
	Lhs *Expr
	Rhs *Expr

	// ExprOther: the tree-sitter kind and the sub-expressions found inside.
	Syntax   string
	Children []*Expr
}

// IsSingleIdent reports whether e is a path of exactly one segment.
func (e *Expr) IsSingleIdent() bool {
	return e != nil && e.Kind == ExprPath && len(e.Segments) == 1
}

// Ident returns the name of a single-segment path, or "".
func (e *Expr) Ident() string {
	if !e.IsSingleIdent() {
		return ""
	}
	return e.Segments[0]
}

// StmtKind discriminates Stmt.
type StmtKind uint8

const (
	// StmtSemi is an expression followed by a semicolon.
	StmtSemi StmtKind = iota
	// StmtExpr is a block-like expression used as a statement without a semicolon.
	StmtExpr
	StmtLet
	StmtItem
	StmtOther
)

// Stmt is a block statement.
type Stmt struct {
	ID   HirID
	Kind StmtKind
	Span source.Span
	Expr *Expr  // StmtSemi, StmtExpr
	Let  *Local // StmtLet
}

// Local is a let declaration.
type Local struct {
	Binding string // empty unless the pattern is a simple binding
	Mutable bool
	Type    *TypeRef
	Init    *Expr
}

// Param is a closure or function parameter.
type Param struct {
	ID      HirID
	Span    source.Span
	Binding string // empty unless the pattern is a simple binding
	Mutable bool
	Type    *TypeRef // nil when not annotated
}

// TypeRefKind discriminates TypeRef.
type TypeRefKind uint8

const (
	TypeRefOther TypeRefKind = iota
	TypeRefPath
	TypeRefRef
	TypeRefTuple
	TypeRefPrim
)

// TypeRef is a written type annotation, before name resolution.
type TypeRef struct {
	Kind     TypeRefKind
	Span     source.Span
	Segments []string   // TypeRefPath; TypeRefPrim holds the primitive name
	Mutable  bool       // TypeRefRef
	Elem     *TypeRef   // TypeRefRef
	Elems    []*TypeRef // TypeRefTuple
}

// Fn is a function item with a body.
type Fn struct {
	ID       HirID
	Name     string
	Span     source.Span
	Generics []string
	Params   []*Param
	Body     *Expr
}

// Use is one imported name. A glob import has Glob set and Name empty.
type Use struct {
	Name string
	Path []string
	Glob bool
}

// File is a lowered source file.
type File struct {
	ID   source.FileID
	Uses []Use
	Fns  []*Fn
}
