package lint

import (
	"errors"
	"fmt"

	"github.com/DeusData/builder-migrate/internal/builder"
	"github.com/DeusData/builder-migrate/internal/diag"
	"github.com/DeusData/builder-migrate/internal/hir"
	"github.com/DeusData/builder-migrate/internal/rewrite"
	"github.com/DeusData/builder-migrate/internal/source"
	"github.com/DeusData/builder-migrate/internal/typeck"
)

const (
	lintMessage = "closure-style builders will break in the next version of serenity"
	fixTitle    = "replace with"
)

// Checker finds closure-style builders in the files of a FileSet.
type Checker struct {
	files *source.FileSet
	cat   *typeck.Catalogue
	reg   *rewrite.Registry
	opts  Options
}

// NewChecker returns a Checker. A nil registry uses the built-in table.
func NewChecker(files *source.FileSet, cat *typeck.Catalogue, reg *rewrite.Registry, opts Options) *Checker {
	return &Checker{files: files, cat: cat, reg: reg, opts: opts}
}

// CheckFile parses file id, computes its types and reports one diagnostic
// per builder found. It returns the number of diagnostics reported.
func (c *Checker) CheckFile(id source.FileID, r diag.Reporter) (int, error) {
	f := c.files.Get(id)
	if f == nil {
		return 0, fmt.Errorf("check: unknown file %d", id)
	}
	lowered, err := hir.ParseFile(id, f.Content)
	if err != nil {
		return 0, fmt.Errorf("check %s: %w", f.Path, err)
	}
	return c.CheckHIR(lowered, typeck.Check(lowered, c.cat), r), nil
}

// CheckHIR runs the engine over every function body of an already lowered
// file.
func (c *Checker) CheckHIR(file *hir.File, types builder.TypeResolver, r diag.Reporter) int {
	en := NewEngine(types, c.files, c.reg, c.opts)
	n := 0
	for _, fn := range file.Fns {
		v := &visitor{
			en:       en,
			files:    c.files,
			done:     newSpanSet(),
			reporter: r,
		}
		hir.WalkExpr(v, fn.Body)
		n += v.reported
	}
	return n
}

type visitor struct {
	en       *Engine
	files    *source.FileSet
	done     *spanSet
	reporter diag.Reporter
	reported int
}

func (v *visitor) VisitExpr(e *hir.Expr) bool {
	if v.done.covers(e.Span) {
		return false
	}
	m, err := v.en.MatchExpr(e)
	if err != nil {
		v.done.add(e.Span)
		var se *rewrite.StructuralError
		if errors.As(err, &se) {
			diag.ReportInfo(v.reporter, diag.BuilderUnchanged, e.Span,
				fmt.Sprintf("closure-style %s left unchanged: %s", se.Builder, se.Reason)).
				WithNote(se.Span, se.Reason).
				Emit()
			v.reported++
		}
		return false
	}
	if m == nil {
		return true
	}
	v.done.add(m.Span)
	v.emit(m.Span, m.Result)
	return false
}

func (v *visitor) VisitStmt(s *hir.Stmt) bool {
	if v.done.covers(s.Span) {
		return false
	}
	// `b = b.x(..);` already has by-value shape.
	if s.Expr != nil && s.Expr.Kind == hir.ExprAssign {
		return true
	}
	m, ok := v.en.MatchStmt(s)
	if !ok {
		return true
	}
	v.done.add(m.Span)
	v.emit(m.Span, m.Result)
	return false
}
func (v *visitor) emit(span source.Span, res rewrite.Result) {
	applicability := diag.FixApplicabilityAlwaysSafe
	if !res.MachineApplicable() {
		applicability = diag.FixApplicabilityNeedsReview
	}
	old, _ := v.files.Snippet(span)

	b := diag.ReportWarning(v.reporter, diag.BuilderClosure, span, lintMessage).
		WithNote(span, lintMessage)
	for _, n := range res.Notes {
		b = b.WithNote(n.Span, n.Message)
	}
	b.WithFix(fixTitle, applicability, diag.TextEdit{Span: span, NewText: res.Text, OldText: old}).Emit()
	v.reported++
}
