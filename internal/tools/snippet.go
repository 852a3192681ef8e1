package tools

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/builder-migrate/internal/diag"
	"github.com/DeusData/builder-migrate/internal/diagfmt"
	"github.com/DeusData/builder-migrate/internal/fix"
	"github.com/DeusData/builder-migrate/internal/lint"
	"github.com/DeusData/builder-migrate/internal/pipeline"
	"github.com/DeusData/builder-migrate/internal/source"
)

const (
	snippetName   = "snippet.rs"
	snippetPrefix = "fn snippet() {\n"
	snippetSuffix = "\n}\n"
)

func (s *Server) handleMigrateSnippet(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	src := getStringArg(args, "source")
	if strings.TrimSpace(src) == "" {
		return errResult("source is required"), nil
	}

	settings, err := pipeline.SettingsFromConfig(nil)
	if err != nil {
		return errResult(err.Error()), nil
	}
	settings.Options.MultilineSetters = getBoolArg(args, "multiline_setters", false)

	out, err := MigrateSnippet(src, settings, getBoolArg(args, "include_review", true))
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(out), nil
}

// SnippetResult is the outcome of MigrateSnippet.
type SnippetResult struct {
	Migrated    string                    `json:"migrated"`
	Changed     bool                      `json:"changed"`
	Wrapped     bool                      `json:"wrapped"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

// MigrateSnippet checks src held in memory and returns it with the fixes
// applied. Source without a fn item is wrapped in one first; offsets in the
// returned diagnostics then refer to the wrapped text.
func MigrateSnippet(src string, settings pipeline.Settings, includeReview bool) (*SnippetResult, error) {
	wrapped := !strings.Contains(src, "fn ")
	text := src
	if wrapped {
		text = snippetPrefix + src + snippetSuffix
	}

	fs := source.NewFileSet()
	id := fs.AddVirtual(snippetName, []byte(text))
	bag := diag.NewBag(0)
	checker := lint.NewChecker(fs, settings.Catalogue, settings.Registry, settings.Options)
	if _, err := checker.CheckFile(id, diag.BagReporter{Bag: bag}); err != nil {
		return nil, err
	}
	bag.Sort()

	out := &SnippetResult{
		Migrated: src,
		Wrapped:  wrapped,
		Diagnostics: diagfmt.BuildDiagnosticsOutput(bag.Items(), fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeBasename,
			IncludeNotes:     true,
			IncludeFixes:     true,
		}),
	}

	res, err := fix.Apply(fs, bag.Items(), fix.ApplyOptions{
		Mode:          fix.ApplyModeAll,
		DryRun:        true,
		IncludeReview: includeReview,
	})
	if err != nil && !errors.Is(err, fix.ErrNoFixes) {
		return nil, err
	}
	if len(res.FileChanges) == 0 {
		return out, nil
	}

	migrated := string(res.FileChanges[0].Content)
	if wrapped {
		migrated = strings.TrimSuffix(strings.TrimPrefix(migrated, snippetPrefix), snippetSuffix)
	}
	out.Migrated = migrated
	out.Changed = migrated != src
	return out, nil
}

// readLines reads specific lines from a file, returning them with line numbers.
func readLines(path string, startLine, endLine int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum > endLine {
			break
		}
		if lineNum >= startLine {
			fmt.Fprintf(&sb, "%4d | %s\n", lineNum, scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan: %w", err)
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("no lines found in range %d-%d (file has %d lines)", startLine, endLine, lineNum)
	}

	return sb.String(), nil
}
