package tools

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/builder-migrate/internal/diag"
	"github.com/DeusData/builder-migrate/internal/discover"
	"github.com/DeusData/builder-migrate/internal/fix"
	"github.com/DeusData/builder-migrate/internal/lang"
	"github.com/DeusData/builder-migrate/internal/pipeline"
	"github.com/DeusData/builder-migrate/internal/source"
	"github.com/DeusData/builder-migrate/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

func (s *Server) handleListSuggestions(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	project := getStringArg(args, "project_name")
	if project == "" {
		return errResult("project_name is required"), nil
	}

	limit := getIntArg(args, "limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	filter := store.SuggestionFilter{
		RelPath:       getStringArg(args, "rel_path"),
		Code:          getStringArg(args, "code"),
		Applicability: getStringArg(args, "applicability"),
		Limit:         limit,
		Offset:        max(getIntArg(args, "offset", 0), 0),
	}
	sgs, err := s.store.ListSuggestions(project, filter)
	if err != nil {
		return errResult(fmt.Sprintf("list suggestions: %v", err)), nil
	}
	if sgs == nil {
		sgs = []*store.Suggestion{}
	}

	return jsonResult(map[string]any{
		"project":     project,
		"suggestions": sgs,
		"count":       len(sgs),
		"has_more":    len(sgs) == limit,
	}), nil
}

func (s *Server) handleGetSuggestion(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	id := getIntArg(args, "id", 0)
	if id <= 0 {
		return errResult("id is required"), nil
	}
	contextLines := max(getIntArg(args, "context_lines", 2), 0)

	sg, err := s.store.GetSuggestion(int64(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(fmt.Sprintf("suggestion not found: %d", id)), nil
		}
		return errResult(err.Error()), nil
	}

	out := map[string]any{"suggestion": sg}
	if proj, projErr := s.store.GetProject(sg.Project); projErr == nil {
		path := filepath.Join(proj.RootPath, filepath.FromSlash(sg.RelPath))
		endLine := sg.Line + strings.Count(sg.OldText, "\n")
		excerpt, readErr := readLines(path, max(sg.Line-contextLines, 1), endLine+contextLines)
		if readErr == nil {
			out["file_path"] = path
			out["source"] = excerpt
		} else {
			out["source_error"] = readErr.Error()
		}
	}
	return jsonResult(out), nil
}

func (s *Server) handleApplySuggestions(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	project := getStringArg(args, "project_name")
	if project == "" {
		return errResult("project_name is required"), nil
	}
	proj, err := s.store.GetProject(project)
	if err != nil {
		return errResult(fmt.Sprintf("project not found: %s", project)), nil
	}

	relPath := getStringArg(args, "rel_path")
	id := getIntArg(args, "id", 0)
	dryRun := getBoolArg(args, "dry_run", false)

	var target *store.Suggestion
	if id > 0 {
		target, err = s.store.GetSuggestion(int64(id))
		if err != nil || target.Project != project {
			return errResult(fmt.Sprintf("suggestion not found: %d", id)), nil
		}
		if target.NewText == "" {
			return errResult(fmt.Sprintf("suggestion %d (%s) has no fix", id, target.Code)), nil
		}
		relPath = target.RelPath
	}

	settings, err := projectSettings(proj.RootPath)
	if err != nil {
		return errResult(fmt.Sprintf("config: %v", err)), nil
	}
	files, err := filesToFix(ctx, proj.RootPath, relPath, settings)
	if err != nil {
		return errResult(err.Error()), nil
	}

	// Fixes are recomputed from disk so stale stored rows never reach a file.
	fs := source.NewFileSetWithBase(proj.RootPath)
	results, err := pipeline.Analyze(ctx, fs, files, settings)
	if err != nil {
		return errResult(err.Error()), nil
	}
	var ds []diag.Diagnostic
	for _, r := range results {
		if r.Err == nil {
			ds = append(ds, r.Diagnostics...)
		}
	}

	opts := fix.ApplyOptions{
		Mode:          fix.ApplyModeAll,
		DryRun:        dryRun,
		IncludeReview: getBoolArg(args, "include_review", false),
	}
	if target != nil {
		fixID, ok := matchSuggestion(ds, target)
		if !ok {
			return errResult(fmt.Sprintf("suggestion %d is stale; rescan the project", id)), nil
		}
		opts = fix.ApplyOptions{Mode: fix.ApplyModeID, TargetID: fixID, DryRun: dryRun}
	}

	res, applyErr := fix.Apply(fs, ds, opts)
	if applyErr != nil && !errors.Is(applyErr, fix.ErrNoFixes) {
		return errResult(fmt.Sprintf("apply failed: %v", applyErr)), nil
	}

	if !dryRun && len(res.FileChanges) > 0 {
		if _, err := s.Scan(ctx, proj.RootPath); err != nil {
			return errResult(fmt.Sprintf("rescan failed: %v", err)), nil
		}
	}

	return jsonResult(applyResultJSON(res, dryRun)), nil
}

// filesToFix returns the single file relPath, or every Rust file of root.
func filesToFix(ctx context.Context, root, relPath string, settings pipeline.Settings) ([]discover.FileInfo, error) {
	if relPath == "" {
		return discover.Discover(ctx, root, &discover.Options{Ignore: settings.Ignore})
	}
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("rel_path must stay inside the project: %s", relPath)
	}
	l, ok := lang.LanguageForExtension(filepath.Ext(clean))
	if !ok || l != lang.Rust {
		return nil, fmt.Errorf("not a Rust source file: %s", relPath)
	}
	return []discover.FileInfo{{
		Path:     filepath.Join(root, clean),
		RelPath:  filepath.ToSlash(clean),
		Language: l,
	}}, nil
}

// matchSuggestion finds the fix of a fresh diagnostic at the same place as sg.
func matchSuggestion(ds []diag.Diagnostic, sg *store.Suggestion) (string, bool) {
	for _, d := range ds {
		if d.Code.ID() != sg.Code || int(d.Primary.Start) != sg.StartByte || int(d.Primary.End) != sg.EndByte {
			continue
		}
		if len(d.Fixes) == 0 {
			return "", false
		}
		return fix.FixID(d, 0), true
	}
	return "", false
}

func applyResultJSON(res *fix.ApplyResult, dryRun bool) map[string]any {
	type applied struct {
		ID            string `json:"id"`
		Path          string `json:"path"`
		Applicability string `json:"applicability"`
	}
	type skipped struct {
		ID     string `json:"id"`
		Reason string `json:"reason"`
	}
	type change struct {
		Path    string `json:"path"`
		Edits   int    `json:"edits"`
		Content string `json:"content,omitempty"`
	}

	out := map[string]any{"dry_run": dryRun}
	as := make([]applied, 0, len(res.Applied))
	for _, a := range res.Applied {
		as = append(as, applied{ID: a.ID, Path: a.PrimaryPath, Applicability: a.Applicability.String()})
	}
	ss := make([]skipped, 0, len(res.Skipped))
	for _, sk := range res.Skipped {
		ss = append(ss, skipped{ID: sk.ID, Reason: sk.Reason})
	}
	cs := make([]change, 0, len(res.FileChanges))
	for _, c := range res.FileChanges {
		ch := change{Path: c.Path, Edits: c.EditCount}
		if dryRun {
			ch.Content = string(c.Content)
		}
		cs = append(cs, ch)
	}
	out["applied"] = as
	out["skipped"] = ss
	out["files"] = cs
	return out
}
