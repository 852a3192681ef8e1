package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/DeusData/builder-migrate/internal/diag"
	"github.com/DeusData/builder-migrate/internal/fix"
	"github.com/DeusData/builder-migrate/internal/source"
)

type palette struct{ on bool }

func (p palette) paint(s string, attrs ...color.Attribute) string {
	if !p.on {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

func severityAttrs(sev diag.Severity) []color.Attribute {
	switch sev {
	case diag.SevError:
		return []color.Attribute{color.FgRed, color.Bold}
	case diag.SevWarning:
		return []color.Attribute{color.FgYellow, color.Bold}
	default:
		return []color.Attribute{color.FgCyan, color.Bold}
	}
}

// Pretty prints every diagnostic of bag in its current order as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with the span underlined, then notes and
// suggested replacements when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := palette{on: opts.Color}
	for _, d := range bag.Items() {
		if err := prettyOne(w, d, fs, opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) error {
	start, _ := fs.Resolve(d.Primary)
	header := fmt.Sprintf("%s:%d:%d:", formatPath(fs, d.Primary.File, opts.PathMode), start.Line, start.Col)
	if _, err := fmt.Fprintf(w, "%s %s %s: %s\n",
		p.paint(header, color.Bold),
		p.paint(d.Severity.String(), severityAttrs(d.Severity)...),
		d.Code.ID(),
		d.Message); err != nil {
		return err
	}
	if err := excerpt(w, fs, d.Primary, p); err != nil {
		return err
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			if n.Span == d.Primary && n.Msg == d.Message {
				continue
			}
			pos, _ := fs.Resolve(n.Span)
			if _, err := fmt.Fprintf(w, "  %s %d:%d: %s\n", p.paint("note:", color.Bold), pos.Line, pos.Col, n.Msg); err != nil {
				return err
			}
		}
	}

	if opts.ShowFixes {
		for i, f := range d.Fixes {
			for _, edit := range f.Edits {
				if _, err := fmt.Fprintf(w, "  %s %s (%s, %s):\n", p.paint("help:", color.FgGreen, color.Bold), f.Title, f.Applicability, fix.FixID(d, i)); err != nil {
					return err
				}
				for _, line := range strings.Split(edit.NewText, "\n") {
					if _, err := fmt.Fprintf(w, "      %s\n", p.paint(line, color.FgGreen)); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// excerpt prints the first line of span with a caret line under it.
func excerpt(w io.Writer, fs *source.FileSet, span source.Span, p palette) error {
	f := fs.Get(span.File)
	if f == nil {
		return nil
	}
	start, end := fs.Resolve(span)
	line := strings.TrimRight(f.GetLine(start.Line), "\r")

	from := int(start.Col) - 1
	if from > len(line) {
		from = len(line)
	}
	to := len(line)
	if end.Line == start.Line {
		to = min(int(end.Col)-1, len(line))
	}
	width := max(to-from, 1)

	var pad strings.Builder
	for _, r := range line[:from] {
		if r == '\t' {
			pad.WriteRune('\t')
		} else {
			pad.WriteByte(' ')
		}
	}
	gutter := fmt.Sprintf("%4d | ", start.Line)
	if _, err := fmt.Fprintf(w, "%s%s\n", p.paint(gutter, color.FgBlue), line); err != nil {
		return err
	}
	marker := "^" + strings.Repeat("~", width-1)
	_, err := fmt.Fprintf(w, "%s%s%s\n", p.paint("     | ", color.FgBlue), pad.String(), p.paint(marker, color.FgGreen, color.Bold))
	return err
}
