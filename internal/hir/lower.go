package hir

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/builder-migrate/internal/lang"
	"github.com/DeusData/builder-migrate/internal/parser"
	"github.com/DeusData/builder-migrate/internal/source"
)

var literalKinds = []string{
	"string_literal",
	"raw_string_literal",
	"char_literal",
	"integer_literal",
	"float_literal",
	"boolean_literal",
	"negative_literal",
}

// Sub-trees that never contain expressions worth visiting.
var nonExprKinds = []string{
	"type_identifier",
	"primitive_type",
	"field_identifier",
	"shorthand_field_identifier",
	"type_arguments",
	"lifetime",
	"label",
	"mutable_specifier",
	"attribute_item",
	"inner_attribute_item",
	"token_tree",
}

// ParseFile parses and lowers the Rust source of one file.
func ParseFile(file source.FileID, src []byte) (*File, error) {
	tree, err := parser.Parse(lang.Rust, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()
	return Lower(tree.RootNode(), src, file), nil
}

// Lower converts a tree-sitter-rust syntax tree into a File. Every function
// item with a body is collected, including methods and nested functions.
func Lower(root *tree_sitter.Node, src []byte, file source.FileID) *File {
	l := &lowerer{
		src:  src,
		file: file,
		spec: lang.ForLanguage(lang.Rust),
		out:  &File{ID: file},
	}
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		switch {
		case lang.Is(n.Kind(), l.spec.FunctionNodeTypes):
			if fn := l.fn(n); fn != nil {
				l.out.Fns = append(l.out.Fns, fn)
			}
		case lang.Is(n.Kind(), l.spec.ImportNodeTypes):
			l.use(n.ChildByFieldName("argument"), nil)
			return false
		}
		return true
	})
	return l.out
}

type lowerer struct {
	src    []byte
	file   source.FileID
	spec   *lang.LanguageSpec
	nextID HirID
	out    *File
}

func (l *lowerer) id() HirID {
	l.nextID++
	return l.nextID
}

func (l *lowerer) span(n *tree_sitter.Node) source.Span {
	return parser.NodeSpan(n, l.file)
}

func (l *lowerer) text(n *tree_sitter.Node) string {
	return parser.NodeText(n, l.src)
}

func (l *lowerer) children(n *tree_sitter.Node) []*tree_sitter.Node {
	return parser.NamedChildren(n, l.spec.CommentNodeTypes)
}

func (l *lowerer) fn(n *tree_sitter.Node) *Fn {
	body := n.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	fn := &Fn{
		ID:   l.id(),
		Span: l.span(n),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		fn.Name = l.text(name)
	}
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		for _, c := range l.children(tp) {
			if name := l.genericName(c); name != "" {
				fn.Generics = append(fn.Generics, name)
			}
		}
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, c := range l.children(params) {
			switch c.Kind() {
			case "parameter":
				fn.Params = append(fn.Params, l.param(c))
			case "self_parameter":
				fn.Params = append(fn.Params, &Param{ID: l.id(), Span: l.span(c), Binding: "self"})
			}
		}
	}
	fn.Body = l.expr(body)
	return fn
}

func (l *lowerer) genericName(n *tree_sitter.Node) string {
	switch n.Kind() {
	case "type_identifier":
		return l.text(n)
	case "constrained_type_parameter":
		if left := n.ChildByFieldName("left"); left != nil && left.Kind() == "type_identifier" {
			return l.text(left)
		}
	case "type_parameter", "optional_type_parameter":
		if name := n.ChildByFieldName("name"); name != nil {
			return l.text(name)
		}
	}
	return ""
}

// param lowers a `parameter` node or, in closure parameter lists, a bare pattern.
func (l *lowerer) param(n *tree_sitter.Node) *Param {
	p := &Param{ID: l.id(), Span: l.span(n)}
	pat := n
	if n.Kind() == "parameter" {
		pat = n.ChildByFieldName("pattern")
		p.Type = l.typeRef(n.ChildByFieldName("type"))
		p.Mutable = hasChildKind(n, "mutable_specifier")
	}
	binding, mutable := l.binding(pat)
	p.Binding = binding
	p.Mutable = p.Mutable || mutable
	return p
}

// binding returns the name bound by a simple binding pattern.
func (l *lowerer) binding(pat *tree_sitter.Node) (string, bool) {
	if pat == nil {
		return "", false
	}
	switch pat.Kind() {
	case "identifier", "self":
		return l.text(pat), false
	case "mut_pattern":
		for _, c := range l.children(pat) {
			if c.Kind() == "identifier" {
				return l.text(c), true
			}
		}
	}
	return "", false
}

func (l *lowerer) expr(n *tree_sitter.Node) *Expr {
	if n == nil {
		return nil
	}
	kind := n.Kind()
	switch {
	case kind == "parenthesized_expression":
		if inner := l.children(n); len(inner) == 1 {
			return l.expr(inner[0])
		}
	case kind == "generic_function":
		if inner := n.ChildByFieldName("function"); inner != nil {
			return l.expr(inner)
		}
	case kind == "identifier" || kind == "self" || kind == "crate" || kind == "super":
		return &Expr{ID: l.id(), Kind: ExprPath, Span: l.span(n), Segments: []string{l.text(n)}}
	case kind == "scoped_identifier":
		return &Expr{ID: l.id(), Kind: ExprPath, Span: l.span(n), Segments: SplitPath(l.text(n))}
	case lang.Is(kind, literalKinds):
		return &Expr{ID: l.id(), Kind: ExprLit, Span: l.span(n), Syntax: kind}
	case lang.Is(kind, l.spec.CallNodeTypes):
		return l.call(n)
	case lang.Is(kind, l.spec.ClosureNodeTypes):
		return l.closure(n)
	case lang.Is(kind, l.spec.BlockNodeTypes):
		return l.block(n)
	case lang.Is(kind, l.spec.AssignmentNodeTypes):
		return &Expr{
			ID:   l.id(),
			Kind: ExprAssign,
			Span: l.span(n),
			Lhs:  l.expr(n.ChildByFieldName("left")),
			Rhs:  l.expr(n.ChildByFieldName("right")),
		}
	}
	return l.other(n)
}

func (l *lowerer) other(n *tree_sitter.Node) *Expr {
	e := &Expr{ID: l.id(), Kind: ExprOther, Span: l.span(n), Syntax: n.Kind()}
	for _, c := range l.children(n) {
		if lang.Is(c.Kind(), nonExprKinds) || isTypeKind(c.Kind()) {
			continue
		}
		if sub := l.expr(c); sub != nil {
			e.Children = append(e.Children, sub)
		}
	}
	return e
}

func (l *lowerer) call(n *tree_sitter.Node) *Expr {
	callee := n.ChildByFieldName("function")
	args := l.args(n.ChildByFieldName("arguments"))
	if callee != nil && callee.Kind() == "generic_function" {
		if inner := callee.ChildByFieldName("function"); inner != nil && lang.Is(inner.Kind(), l.spec.MemberNodeTypes) {
			callee = inner
		}
	}
	if callee != nil && lang.Is(callee.Kind(), l.spec.MemberNodeTypes) {
		field := callee.ChildByFieldName("field")
		if field != nil && field.Kind() == "field_identifier" {
			return &Expr{
				ID:       l.id(),
				Kind:     ExprMethodCall,
				Span:     l.span(n),
				Receiver: l.expr(callee.ChildByFieldName("value")),
				Method:   l.text(field),
				Args:     args,
			}
		}
	}
	return &Expr{
		ID:     l.id(),
		Kind:   ExprCall,
		Span:   l.span(n),
		Callee: l.expr(callee),
		Args:   args,
	}
}

func (l *lowerer) args(n *tree_sitter.Node) []*Expr {
	if n == nil {
		return nil
	}
	var out []*Expr
	for _, c := range l.children(n) {
		if c.Kind() == "attribute_item" {
			continue
		}
		out = append(out, l.expr(c))
	}
	return out
}

func (l *lowerer) closure(n *tree_sitter.Node) *Expr {
	e := &Expr{ID: l.id(), Kind: ExprClosure, Span: l.span(n)}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.ChildCount(); i++ {
			c := params.Child(i)
			if c == nil || (!c.IsNamed() && c.Kind() != "_") {
				continue
			}
			if c.Kind() == "attribute_item" || lang.Is(c.Kind(), l.spec.CommentNodeTypes) {
				continue
			}
			e.Params = append(e.Params, l.param(c))
		}
	}
	e.Body = l.expr(n.ChildByFieldName("body"))
	return e
}

func (l *lowerer) block(n *tree_sitter.Node) *Expr {
	e := &Expr{ID: l.id(), Kind: ExprBlock, Span: l.span(n)}
	children := l.children(n)
	for i, c := range children {
		if c.Kind() == "label" {
			continue
		}
		if i == len(children)-1 && !lang.Is(c.Kind(), l.spec.StatementNodeTypes) {
			e.Tail = l.expr(c)
			break
		}
		e.Stmts = append(e.Stmts, l.stmt(c))
	}
	return e
}

func (l *lowerer) stmt(n *tree_sitter.Node) *Stmt {
	s := &Stmt{ID: l.id(), Span: l.span(n)}
	switch n.Kind() {
	case "expression_statement":
		s.Kind = StmtExpr
		if last := n.Child(n.ChildCount() - 1); last != nil && last.Kind() == ";" {
			s.Kind = StmtSemi
		}
		if inner := l.children(n); len(inner) > 0 {
			s.Expr = l.expr(inner[0])
		}
	case "let_declaration":
		s.Kind = StmtLet
		binding, mutable := l.binding(n.ChildByFieldName("pattern"))
		s.Let = &Local{
			Binding: binding,
			Mutable: mutable || hasChildKind(n, "mutable_specifier"),
			Type:    l.typeRef(n.ChildByFieldName("type")),
			Init:    l.expr(n.ChildByFieldName("value")),
		}
	case "empty_statement", "attribute_item", "inner_attribute_item":
		s.Kind = StmtOther
	default:
		if lang.Is(n.Kind(), l.spec.StatementNodeTypes) {
			s.Kind = StmtItem
		} else {
			s.Kind = StmtExpr
			s.Expr = l.expr(n)
		}
	}
	return s
}

func (l *lowerer) typeRef(n *tree_sitter.Node) *TypeRef {
	if n == nil {
		return nil
	}
	t := &TypeRef{Span: l.span(n)}
	switch n.Kind() {
	case "reference_type":
		t.Kind = TypeRefRef
		t.Mutable = hasChildKind(n, "mutable_specifier")
		t.Elem = l.typeRef(n.ChildByFieldName("type"))
	case "type_identifier":
		t.Kind = TypeRefPath
		t.Segments = []string{l.text(n)}
	case "scoped_type_identifier":
		t.Kind = TypeRefPath
		t.Segments = SplitPath(l.text(n))
	case "generic_type":
		inner := l.typeRef(n.ChildByFieldName("type"))
		if inner != nil {
			inner.Span = t.Span
			return inner
		}
	case "primitive_type":
		t.Kind = TypeRefPrim
		t.Segments = []string{l.text(n)}
	case "tuple_type", "unit_type":
		t.Kind = TypeRefTuple
		for _, c := range l.children(n) {
			t.Elems = append(t.Elems, l.typeRef(c))
		}
	}
	return t
}

func (l *lowerer) use(n *tree_sitter.Node, prefix []string) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "identifier", "crate", "super", "self":
		name := l.text(n)
		if name == "self" && len(prefix) > 0 {
			l.addUse(prefix[len(prefix)-1], prefix)
			return
		}
		l.addUse(name, join(prefix, name))
	case "scoped_identifier":
		path := join(prefix, SplitPath(l.text(n))...)
		l.addUse(path[len(path)-1], path)
	case "use_as_clause":
		path := join(prefix, SplitPath(l.text(n.ChildByFieldName("path")))...)
		alias := n.ChildByFieldName("alias")
		if alias == nil {
			return
		}
		l.addUse(l.text(alias), path)
	case "use_wildcard":
		path := prefix
		for _, c := range l.children(n) {
			path = join(prefix, SplitPath(l.text(c))...)
		}
		l.out.Uses = append(l.out.Uses, Use{Path: path, Glob: true})
	case "scoped_use_list":
		path := prefix
		if p := n.ChildByFieldName("path"); p != nil {
			path = join(prefix, SplitPath(l.text(p))...)
		}
		l.use(n.ChildByFieldName("list"), path)
	case "use_list":
		for _, c := range l.children(n) {
			l.use(c, prefix)
		}
	}
}

func (l *lowerer) addUse(name string, path []string) {
	if name == "" || len(path) == 0 {
		return
	}
	l.out.Uses = append(l.out.Uses, Use{Name: name, Path: path})
}

func join(prefix []string, segs ...string) []string {
	out := make([]string, 0, len(prefix)+len(segs))
	out = append(out, prefix...)
	return append(out, segs...)
}

func hasChildKind(n *tree_sitter.Node, kind string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil && c.Kind() == kind {
			return true
		}
	}
	return false
}

func isTypeKind(kind string) bool {
	return strings.HasSuffix(kind, "_type") || strings.HasSuffix(kind, "_pattern")
}

// SplitPath splits a written path such as `serenity::builder::CreateEmbed`
// or `Vec::<u8>::new` into its segments, dropping generic arguments.
func SplitPath(text string) []string {
	var b strings.Builder
	depth := 0
	for _, r := range text {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		default:
			b.WriteRune(r)
		}
	}
	var out []string
	for _, seg := range strings.Split(b.String(), "::") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
