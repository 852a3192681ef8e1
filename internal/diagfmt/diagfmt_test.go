package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/builder-migrate/internal/diag"
	"github.com/DeusData/builder-migrate/internal/source"
)

const src = "fn f() {\n\tsend(|m| m.content(\"hi\"));\n}\n"

func sample(t *testing.T) (*source.FileSet, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("src/lib.rs", []byte(src))
	span := source.Span{File: id, Start: 15, End: 34}
	old, ok := fs.Snippet(span)
	require.True(t, ok)
	require.Equal(t, `|m| m.content("hi")`, old)

	bag := diag.NewBag(0)
	diag.ReportWarning(diag.BagReporter{Bag: bag}, diag.BuilderClosure, span, "closure-style builders will break in the next version of serenity").
		WithNote(span, "closure-style builders will break in the next version of serenity").
		WithNote(span, "extra note").
		WithFix("replace with", diag.FixApplicabilityAlwaysSafe, diag.TextEdit{Span: span, NewText: "CreateMessage::new()\n.content(\"hi\")", OldText: old}).
		Emit()
	return fs, bag
}

func TestPretty(t *testing.T) {
	fs, bag := sample(t)
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true, ShowFixes: true}))

	want := "src/lib.rs:2:7: WARNING BM0001: closure-style builders will break in the next version of serenity\n" +
		"   2 | \tsend(|m| m.content(\"hi\"));\n" +
		"     | \t     ^" + strings.Repeat("~", 18) + "\n" +
		"  note: 2:7: extra note\n" +
		"  help: replace with (always-safe, BM0001-0-15-0):\n" +
		"      CreateMessage::new()\n" +
		"      .content(\"hi\")\n"
	assert.Equal(t, want, buf.String())
}

func TestPrettyColor(t *testing.T) {
	fs, bag := sample(t)
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, bag, fs, PrettyOpts{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "BM0001")
}

func TestJSON(t *testing.T) {
	fs, bag := sample(t)
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true, IncludeFixes: true}))

	var out DiagnosticsOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, 1, out.Count)
	d := out.Diagnostics[0]
	assert.Equal(t, "WARNING", d.Severity)
	assert.Equal(t, "BM0001", d.Code)
	assert.Equal(t, "src/lib.rs", d.Location.File)
	assert.Equal(t, uint32(2), d.Location.StartLine)
	assert.Equal(t, uint32(7), d.Location.StartCol)
	assert.Len(t, d.Notes, 2)
	require.Len(t, d.Fixes, 1)
	assert.Equal(t, "always-safe", d.Fixes[0].Applicability)
	assert.Equal(t, "BM0001-0-15-0", d.Fixes[0].ID)
	assert.Equal(t, uint32(15), d.Fixes[0].Edits[0].Location.StartByte)
}

func TestJSONMax(t *testing.T) {
	fs, bag := sample(t)
	bag.Add(diag.Diagnostic{Severity: diag.SevInfo, Code: diag.BuilderUnchanged, Primary: source.Span{Start: 0, End: 2}})
	out := BuildDiagnosticsOutput(bag.Items(), fs, JSONOpts{Max: 1})
	assert.Equal(t, 1, out.Count)
	assert.Empty(t, out.Diagnostics[0].Fixes)
	assert.Zero(t, out.Diagnostics[0].Location.StartLine)
}
