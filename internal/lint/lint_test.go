package lint

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/builder-migrate/internal/diag"
	"github.com/DeusData/builder-migrate/internal/hir"
	"github.com/DeusData/builder-migrate/internal/rewrite"
	"github.com/DeusData/builder-migrate/internal/source"
	"github.com/DeusData/builder-migrate/internal/typeck"
)

func check(t *testing.T, src string, opts Options) (*source.FileSet, []diag.Diagnostic) {
	t.Helper()
	cat, err := typeck.Default()
	require.NoError(t, err)
	fs := source.NewFileSet()
	id := fs.AddVirtual("lib.rs", []byte(src))
	bag := diag.NewBag(0)
	n, err := NewChecker(fs, cat, nil, opts).CheckFile(id, diag.BagReporter{Bag: bag})
	require.NoError(t, err)
	items := bag.Items()
	require.Len(t, items, n)
	return fs, items
}

func strict() Options { return Options{StrictReceivers: true} }

// apply substitutes every fix edit back into src.
func apply(t *testing.T, src string, ds []diag.Diagnostic) string {
	t.Helper()
	var edits []diag.TextEdit
	for _, d := range ds {
		for _, f := range d.Fixes {
			edits = append(edits, f.Edits...)
		}
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].Span.Start > edits[j].Span.Start })
	out := src
	for _, ed := range edits {
		require.Equal(t, ed.OldText, out[ed.Span.Start:ed.Span.End])
		out = out[:ed.Span.Start] + ed.NewText + out[ed.Span.End:]
	}
	return out
}

func single(t *testing.T, ds []diag.Diagnostic) (diag.Diagnostic, diag.TextEdit) {
	t.Helper()
	require.Len(t, ds, 1)
	d := ds[0]
	require.Len(t, d.Fixes, 1)
	require.Len(t, d.Fixes[0].Edits, 1)
	return d, d.Fixes[0].Edits[0]
}

const scenarioA = `fn send(channel: ChannelId, http: Http) {
    channel.send_message(&http, |m| m.content("hi").tts(true));
}
`

func TestSetterChainClosure(t *testing.T) {
	_, ds := check(t, scenarioA, strict())
	d, edit := single(t, ds)

	assert.Equal(t, diag.SevWarning, d.Severity)
	assert.Equal(t, diag.BuilderClosure, d.Code)
	assert.Equal(t, "closure-style builders will break in the next version of serenity", d.Message)
	assert.Equal(t, "replace with", d.Fixes[0].Title)
	assert.Equal(t, diag.FixApplicabilityAlwaysSafe, d.Fixes[0].Applicability)
	require.Len(t, d.Notes, 1)
	assert.Equal(t, d.Primary, d.Notes[0].Span)

	assert.Equal(t, `|m| m.content("hi").tts(true)`, edit.OldText)
	assert.Equal(t, `CreateMessage::new().content("hi").tts(true)`, edit.NewText)
	assert.Equal(t, d.Primary, edit.Span)
}

func TestPreludeClosure(t *testing.T) {
	src := `fn send(channel: ChannelId) {
    channel.send_message(&http, |m| {
        let x = 1;
        m.content("n");
        m.tts(x)
    });
}
`
	_, ds := check(t, src, strict())
	_, edit := single(t, ds)
	assert.Equal(t, "{\nlet mut m = CreateMessage::new();\nlet x = 1;\nm = m.content(\"n\");\nm.tts(x)\n}", edit.NewText)
}

func TestComponentsInsideResponse(t *testing.T) {
	src := `fn respond(interaction: ApplicationCommandInteraction, ctx: Context) {
    interaction.create_interaction_response(&ctx.http, |r| {
        r.kind(InteractionResponseType::ChannelMessageWithSource)
            .interaction_response_data(|d| {
                d.content("pong").components(|c| c.create_action_row(|row| row.create_button(|b| b.custom_id("x").label("Go"))))
            })
    });
}
`
	_, ds := check(t, src, strict())
	d, edit := single(t, ds)
	assert.Equal(t, diag.FixApplicabilityAlwaysSafe, d.Fixes[0].Applicability)
	assert.Equal(t,
		`CreateInteractionResponse::Message(CreateInteractionResponseMessage::new().content("pong").components(vec![CreateActionRow::Buttons(vec![CreateButton::new("x").label("Go")])]))`,
		edit.NewText)
}

func TestNestedClosureReportedOnce(t *testing.T) {
	src := `fn send(channel: ChannelId) {
    channel.send_message(&http, |m| m.embed(|e| e.title("t")));
}
`
	_, ds := check(t, src, strict())
	_, edit := single(t, ds)
	assert.Equal(t, `CreateMessage::new().embed(CreateEmbed::new().title("t"))`, edit.NewText)
}

func TestMissingRequiredFieldNeedsReview(t *testing.T) {
	src := `fn send(channel: ChannelId) {
    channel.send_message(&http, |m| m.embed(|e| e.author(|a| a.icon_url("u"))));
}
`
	_, ds := check(t, src, strict())
	d, edit := single(t, ds)
	assert.Equal(t, diag.FixApplicabilityNeedsReview, d.Fixes[0].Applicability)
	assert.Equal(t, `CreateMessage::new().embed(CreateEmbed::new().author(CreateEmbedAuthor::new(todo!()).icon_url("u")))`, edit.NewText)
	require.Len(t, d.Notes, 2)
	assert.Contains(t, d.Notes[1].Msg, "`name`")
}

func TestStatementChain(t *testing.T) {
	src := `use serenity::builder::CreateEmbed;

fn build() -> CreateEmbed {
    let mut e = CreateEmbed::default();
    e.title("x").colour(3);
    e
}
`
	_, ds := check(t, src, strict())
	_, edit := single(t, ds)
	assert.Equal(t, `e.title("x").colour(3);`, edit.OldText)
	assert.Equal(t, `e = e.title("x").colour(3);`, edit.NewText)
}

func TestStructuralFailureLeavesClosure(t *testing.T) {
	src := `fn respond(interaction: ApplicationCommandInteraction) {
    interaction.create_interaction_response(&http, |r| r.flags(1).kind(k));
}
`
	_, ds := check(t, src, strict())
	require.Len(t, ds, 1)
	d := ds[0]
	assert.Equal(t, diag.SevInfo, d.Severity)
	assert.Equal(t, diag.BuilderUnchanged, d.Code)
	assert.Empty(t, d.Fixes)
	assert.Equal(t, "closure-style CreateInteractionResponse left unchanged: unexpected call `flags`", d.Message)
}

func TestNonBuilderClosuresIgnored(t *testing.T) {
	src := `fn other(v: Vec<u8>, channel: ChannelId) {
    v.iter().map(|x| x + 1);
    channel.send_message(&http, make_message());
    things.configure(|t| t.name("n"));
}
`
	_, ds := check(t, src, strict())
	assert.Empty(t, ds)
}

func TestRewriteIsIdempotent(t *testing.T) {
	sources := map[string]string{
		"setters": scenarioA,
		"prelude": `fn send(channel: ChannelId) {
    channel.send_message(&http, |m| {
        let x = 1;
        m.content("n");
        m.tts(x)
    });
}
`,
		"statement": `use serenity::builder::CreateEmbed;

fn build() {
    let mut e = CreateEmbed::default();
    e.title("x");
}
`,
		"nested": `fn send(channel: ChannelId) {
    channel.send_message(&http, |m| m.embed(|e| e.title("t")).components(|c| c.create_action_row(|r| r.create_button(|b| b.url("u")))));
}
`,
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			_, ds := check(t, src, strict())
			require.NotEmpty(t, ds)
			rewritten := apply(t, src, ds)
			_, again := check(t, rewritten, strict())
			assert.Empty(t, again, rewritten)
		})
	}
}

func TestMultilineSetters(t *testing.T) {
	opts := strict()
	opts.MultilineSetters = true
	_, ds := check(t, scenarioA, opts)
	_, edit := single(t, ds)
	assert.Equal(t, "CreateMessage::new()\n.content(\"hi\")\n.tts(true)", edit.NewText)
}

func TestEngineClassifyAndRewrite(t *testing.T) {
	cat, err := typeck.Default()
	require.NoError(t, err)
	fs := source.NewFileSet()
	id := fs.AddVirtual("lib.rs", []byte(scenarioA))
	f, err := hir.ParseFile(id, fs.Get(id).Content)
	require.NoError(t, err)
	en := NewEngine(typeck.Check(f, cat), fs, nil, strict())

	var spans []source.Span
	var texts []string
	hir.WalkExpr(visitFunc(func(e *hir.Expr) {
		if sp, text, ok := en.ClassifyAndRewrite(e); ok {
			spans = append(spans, sp)
			texts = append(texts, text)
		}
	}), f.Fns[0].Body)

	require.Len(t, texts, 1)
	assert.Equal(t, `CreateMessage::new().content("hi").tts(true)`, texts[0])
	snippet, ok := fs.Snippet(spans[0])
	require.True(t, ok)
	assert.Equal(t, `|m| m.content("hi").tts(true)`, snippet)
}

func newEngine(t *testing.T, src string) (*Engine, *hir.File) {
	t.Helper()
	cat, err := typeck.Default()
	require.NoError(t, err)
	fs := source.NewFileSet()
	id := fs.AddVirtual("lib.rs", []byte(src))
	f, err := hir.ParseFile(id, fs.Get(id).Content)
	require.NoError(t, err)
	return NewEngine(typeck.Check(f, cat), fs, nil, strict()), f
}

func TestEngineMatchExprStructuralError(t *testing.T) {
	en, f := newEngine(t, `fn respond(interaction: ApplicationCommandInteraction) {
    interaction.create_interaction_response(&http, |r| r.flags(1).kind(k));
}
`)
	var errs []error
	var matches []*Match
	hir.WalkExpr(visitFunc(func(e *hir.Expr) {
		m, err := en.MatchExpr(e)
		if err != nil {
			errs = append(errs, err)
		}
		if m != nil {
			matches = append(matches, m)
		}
	}), f.Fns[0].Body)

	assert.Empty(t, matches)
	require.Len(t, errs, 1)
	var se *rewrite.StructuralError
	require.ErrorAs(t, errs[0], &se)
	assert.NotEmpty(t, se.Builder)
	assert.NotEmpty(t, se.Reason)
}

func TestEngineMatchStmt(t *testing.T) {
	en, f := newEngine(t, `use serenity::builder::CreateEmbed;

fn build() -> CreateEmbed {
    let mut e = CreateEmbed::default();
    e.title("x");
    e
}
`)
	var matches []*Match
	for _, st := range f.Fns[0].Body.Stmts {
		if m, ok := en.MatchStmt(st); ok {
			matches = append(matches, m)
		}
	}
	require.Len(t, matches, 1)
	assert.Equal(t, "CreateEmbed", matches[0].Builder)
	assert.Equal(t, `e = e.title("x");`, matches[0].Result.Text)
	assert.True(t, matches[0].Result.MachineApplicable())
}

type visitFunc func(*hir.Expr)

func (f visitFunc) VisitExpr(e *hir.Expr) bool { f(e); return true }
func (visitFunc) VisitStmt(*hir.Stmt) bool     { return true }

func TestSpanSet(t *testing.T) {
	s := newSpanSet()
	outer := source.Span{Start: 10, End: 50}
	s.add(outer)
	s.add(outer)
	assert.Len(t, s.spans, 1)
	assert.True(t, s.covers(outer))
	assert.True(t, s.covers(source.Span{Start: 20, End: 30}))
	assert.False(t, s.covers(source.Span{Start: 40, End: 60}))
	assert.False(t, s.covers(source.Span{Start: 20, End: 30, Ctxt: 1}))
	assert.False(t, s.covers(source.Span{File: 1, Start: 20, End: 30}))
}

func TestCheckFileUnknown(t *testing.T) {
	cat, err := typeck.Default()
	require.NoError(t, err)
	_, err = NewChecker(source.NewFileSet(), cat, nil, strict()).CheckFile(7, diag.BagReporter{Bag: diag.NewBag(0)})
	assert.Error(t, err)
}
