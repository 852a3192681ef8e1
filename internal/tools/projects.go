package tools

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/builder-migrate/internal/pipeline"
	"github.com/DeusData/builder-migrate/internal/store"
)

func (s *Server) handleScanProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	repoPath := getStringArg(args, "repo_path")
	if repoPath == "" {
		return errResult("repo_path is required"), nil
	}

	sum, err := s.Scan(ctx, repoPath)
	if err != nil {
		return errResult(fmt.Sprintf("scan failed: %v", err)), nil
	}

	name := projectNameFor(repoPath)
	counts, _ := s.store.CountSuggestions(name)

	return jsonResult(map[string]any{
		"project":     name,
		"files":       sum.Files,
		"changed":     sum.Changed,
		"removed":     sum.Removed,
		"failed":      sum.Failed,
		"suggestions": counts,
		"serenity":    sum.Serenity,
		"elapsed_ms":  sum.Elapsed.Milliseconds(),
	}), nil
}

func (s *Server) handleListProjects(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.ListProjects()
	if err != nil {
		return errResult(fmt.Sprintf("list projects: %v", err)), nil
	}

	type projectInfo struct {
		Name        string         `json:"name"`
		RootPath    string         `json:"root_path"`
		IndexedAt   string         `json:"indexed_at"`
		Suggestions map[string]int `json:"suggestions"`
	}

	result := make([]projectInfo, 0, len(projects))
	for _, p := range projects {
		counts, _ := s.store.CountSuggestions(p.Name)
		result = append(result, projectInfo{
			Name:        p.Name,
			RootPath:    p.RootPath,
			IndexedAt:   p.IndexedAt,
			Suggestions: counts,
		})
	}

	return jsonResult(result), nil
}

func (s *Server) handleDeleteProject(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	name := getStringArg(args, "project_name")
	if name == "" {
		return errResult("project_name is required"), nil
	}

	if _, err := s.store.GetProject(name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(fmt.Sprintf("project not found: %s", name)), nil
		}
		return errResult(err.Error()), nil
	}

	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	if err := s.store.DeleteProject(name); err != nil {
		return errResult(fmt.Sprintf("delete failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"deleted": name,
		"status":  "ok",
	}), nil
}

// projectNameFor mirrors the name pipeline.New derives for repoPath.
func projectNameFor(repoPath string) string {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return pipeline.ProjectNameFromPath(repoPath)
	}
	return pipeline.ProjectNameFromPath(abs)
}
