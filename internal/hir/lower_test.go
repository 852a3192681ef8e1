package hir

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowerString(t *testing.T, src string) *File {
	t.Helper()
	f, err := ParseFile(0, []byte(src))
	require.NoError(t, err)
	return f
}

func onlyStmt(t *testing.T, fn *Fn) *Stmt {
	t.Helper()
	require.NotNil(t, fn.Body)
	require.Equal(t, ExprBlock, fn.Body.Kind)
	require.Len(t, fn.Body.Stmts, 1)
	return fn.Body.Stmts[0]
}

func TestLowerMethodChainClosure(t *testing.T) {
	src := `use serenity::builder::{CreateEmbed, CreateMessage as Msg};
use serenity::model::prelude::*;

fn send(channel: ChannelId, http: &Http) {
    channel.send_message(http, |m| m.content("hi").tts(true));
}
`
	f := lowerString(t, src)

	assert.Equal(t, []Use{
		{Name: "CreateEmbed", Path: []string{"serenity", "builder", "CreateEmbed"}},
		{Name: "Msg", Path: []string{"serenity", "builder", "CreateMessage"}},
		{Path: []string{"serenity", "model", "prelude"}, Glob: true},
	}, f.Uses)

	require.Len(t, f.Fns, 1)
	fn := f.Fns[0]
	assert.Equal(t, "send", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "channel", fn.Params[0].Binding)
	assert.Equal(t, "ChannelId", fn.Params[0].Type.String())
	assert.Equal(t, "&Http", fn.Params[1].Type.String())

	stmt := onlyStmt(t, fn)
	assert.Equal(t, StmtSemi, stmt.Kind)
	call := stmt.Expr
	require.Equal(t, ExprMethodCall, call.Kind)
	assert.Equal(t, "send_message", call.Method)
	assert.Equal(t, "channel", call.Receiver.Ident())
	require.Len(t, call.Args, 2)
	assert.Equal(t, "http", call.Args[0].Ident())

	closure := call.Args[1]
	require.Equal(t, ExprClosure, closure.Kind)
	require.Len(t, closure.Params, 1)
	assert.Equal(t, "m", closure.Params[0].Binding)
	assert.Nil(t, closure.Params[0].Type)
	assert.Equal(t, `|m| m.content("hi").tts(true)`, src[closure.Span.Start:closure.Span.End])

	tts := closure.Body
	require.Equal(t, ExprMethodCall, tts.Kind)
	assert.Equal(t, "tts", tts.Method)
	content := tts.Receiver
	require.Equal(t, ExprMethodCall, content.Kind)
	assert.Equal(t, "content", content.Method)
	assert.Equal(t, "m", content.Receiver.Ident())
	require.Len(t, content.Args, 1)
	assert.Equal(t, ExprLit, content.Args[0].Kind)
	assert.Equal(t, `"hi"`, src[content.Args[0].Span.Start:content.Args[0].Span.End])
}

func TestLowerBlockClosure(t *testing.T) {
	src := `fn f() {
    run(|b: &mut CreateEmbed| {
        // configure
        let x = 1;
        b.name("n");
        b.value(x)
    });
}
`
	f := lowerString(t, src)
	require.Len(t, f.Fns, 1)
	call := onlyStmt(t, f.Fns[0]).Expr
	require.Equal(t, ExprCall, call.Kind)
	assert.Equal(t, "run", call.Callee.Ident())

	closure := call.Args[0]
	require.Equal(t, ExprClosure, closure.Kind)
	require.Len(t, closure.Params, 1)
	assert.Equal(t, "b", closure.Params[0].Binding)
	require.NotNil(t, closure.Params[0].Type)
	assert.Equal(t, TypeRefRef, closure.Params[0].Type.Kind)
	assert.True(t, closure.Params[0].Type.Mutable)
	assert.Equal(t, "&mut CreateEmbed", closure.Params[0].Type.String())

	body := closure.Body
	require.Equal(t, ExprBlock, body.Kind)
	require.Len(t, body.Stmts, 2)
	assert.Equal(t, StmtLet, body.Stmts[0].Kind)
	assert.Equal(t, "x", body.Stmts[0].Let.Binding)
	assert.Equal(t, "let x = 1;", src[body.Stmts[0].Span.Start:body.Stmts[0].Span.End])
	assert.Equal(t, StmtSemi, body.Stmts[1].Kind)
	assert.Equal(t, "name", body.Stmts[1].Expr.Method)
	require.NotNil(t, body.Tail)
	assert.Equal(t, "value", body.Tail.Method)
}

func TestLowerAssignAndLet(t *testing.T) {
	src := `fn f() {
    let mut e: CreateEmbed = CreateEmbed::default();
    e = e.title("x");
    (e)
}
`
	f := lowerString(t, src)
	body := f.Fns[0].Body
	require.Len(t, body.Stmts, 2)

	let := body.Stmts[0].Let
	require.NotNil(t, let)
	assert.Equal(t, "e", let.Binding)
	assert.True(t, let.Mutable)
	assert.Equal(t, "CreateEmbed", let.Type.String())
	require.Equal(t, ExprCall, let.Init.Kind)
	assert.Equal(t, []string{"CreateEmbed", "default"}, let.Init.Callee.Segments)

	assign := body.Stmts[1].Expr
	require.Equal(t, ExprAssign, assign.Kind)
	assert.Equal(t, "e", assign.Lhs.Ident())
	assert.Equal(t, "title", assign.Rhs.Method)

	// parentheses are transparent
	assert.Equal(t, "e", body.Tail.Ident())
}

func TestLowerCollectsMethodsAndSkipsSignatures(t *testing.T) {
	src := `trait T {
    fn sig(&self);
}

impl Handler {
    fn ready<C: Ctx>(&self, ctx: C) {
        fn inner() {}
    }
}
`
	f := lowerString(t, src)
	names := make([]string, 0, len(f.Fns))
	for _, fn := range f.Fns {
		names = append(names, fn.Name)
	}
	assert.Equal(t, []string{"ready", "inner"}, names)
	assert.Equal(t, []string{"C"}, f.Fns[0].Generics)
	require.Len(t, f.Fns[0].Params, 2)
	assert.Equal(t, "self", f.Fns[0].Params[0].Binding)
	assert.Equal(t, StmtItem, f.Fns[0].Body.Stmts[0].Kind)
}

func TestLowerMutClosureParam(t *testing.T) {
	f := lowerString(t, "fn f() { g(|mut a, _| a); }")
	closure := onlyStmt(t, f.Fns[0]).Expr.Args[0]
	require.Len(t, closure.Params, 2)
	assert.Equal(t, "a", closure.Params[0].Binding)
	assert.True(t, closure.Params[0].Mutable)
	assert.Equal(t, "", closure.Params[1].Binding)
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"b", []string{"b"}},
		{"serenity::builder::CreateEmbed", []string{"serenity", "builder", "CreateEmbed"}},
		{"::std::mem::take", []string{"std", "mem", "take"}},
		{"Vec::<u8>::new", []string{"Vec", "new"}},
		{"HashMap::<String, Vec<u8>>::new", []string{"HashMap", "new"}},
		{"a :: b", []string{"a", "b"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitPath(tt.in), tt.in)
	}
}

type countVisitor struct {
	closures, stmts int
}

func (c *countVisitor) VisitExpr(e *Expr) bool {
	if e.Kind == ExprClosure {
		c.closures++
	}
	return true
}

func (c *countVisitor) VisitStmt(*Stmt) bool {
	c.stmts++
	return true
}

func TestWalkReachesNestedClosures(t *testing.T) {
	src := `fn f() {
    if ready {
        let r = items.iter().map(|x| x.name()).collect::<Vec<_>>();
        match r {
            Some(v) => send(|m| m.content(v)),
            None => {}
        }
    }
}
`
	f := lowerString(t, src)
	v := &countVisitor{}
	WalkExpr(v, f.Fns[0].Body)
	assert.Equal(t, 2, v.closures)
	assert.GreaterOrEqual(t, v.stmts, 2)
}

func TestDump(t *testing.T) {
	f := lowerString(t, `use serenity::builder::*;
fn f() { b.title("x"); }
`)
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, f))
	out := buf.String()
	assert.Contains(t, out, "use serenity::builder::*")
	assert.Contains(t, out, "fn f")
	assert.Contains(t, out, "MethodCall .title")
	assert.Contains(t, out, "Path b")
	assert.Contains(t, out, "Lit string_literal")
}
