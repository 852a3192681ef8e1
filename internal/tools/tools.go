// Package tools exposes the migration engine as an MCP server.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/builder-migrate/internal/config"
	"github.com/DeusData/builder-migrate/internal/pipeline"
	"github.com/DeusData/builder-migrate/internal/store"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp   *mcp.Server
	store *store.Store

	// scanMu serialises scans from tool calls and the watcher.
	scanMu sync.Mutex
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(s *store.Store, version string) *Server {
	srv := &Server{
		store: s,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "builder-migrate",
				Version: version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Scan runs the incremental pipeline over repoPath using the project's
// .buildermigrate.yml. It matches watcher.IndexFunc once the name is
// dropped.
func (s *Server) Scan(ctx context.Context, repoPath string) (pipeline.Summary, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return pipeline.Summary{}, fmt.Errorf("invalid path: %w", err)
	}
	settings, err := projectSettings(absPath)
	if err != nil {
		return pipeline.Summary{}, err
	}

	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	return pipeline.New(ctx, s.store, absPath, settings).Run()
}

func projectSettings(root string) (pipeline.Settings, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return pipeline.Settings{}, err
	}
	return pipeline.SettingsFromConfig(cfg)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "scan_project",
		Description: "Scan a Rust project for serenity 0.11 closure-style builders. Only files whose content changed since the last scan are re-checked. Suggestions are stored and can be listed with list_suggestions.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repo_path": {
					"type": "string",
					"description": "Absolute path to the crate or workspace root"
				}
			},
			"required": ["repo_path"]
		}`),
	}, s.handleScanProject)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_projects",
		Description: "List scanned projects with their root path, last scan time and suggestion counts per code.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListProjects)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "delete_project",
		Description: "Forget a scanned project and all its stored suggestions. Source files are not touched.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project_name": {
					"type": "string",
					"description": "Name of the project to delete"
				}
			},
			"required": ["project_name"]
		}`),
	}, s.handleDeleteProject)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_suggestions",
		Description: "List stored migration suggestions of a project. BM0001 entries carry the builder-style replacement; BM0002 entries mark closures left unchanged.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project_name": {
					"type": "string",
					"description": "Name of the project (see list_projects)"
				},
				"rel_path": {
					"type": "string",
					"description": "Only suggestions of this file, relative to the project root"
				},
				"code": {
					"type": "string",
					"description": "Only this code",
					"enum": ["BM0001", "BM0002"]
				},
				"applicability": {
					"type": "string",
					"description": "Only fixes with this applicability",
					"enum": ["always-safe", "needs-review"]
				},
				"limit": {
					"type": "integer",
					"description": "Max results (default 50, max 500)"
				},
				"offset": {
					"type": "integer",
					"description": "Skip this many results"
				}
			},
			"required": ["project_name"]
		}`),
	}, s.handleListSuggestions)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_suggestion",
		Description: "Return one suggestion with the surrounding source lines.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {
					"type": "integer",
					"description": "Suggestion id"
				},
				"context_lines": {
					"type": "integer",
					"description": "Lines of context around the builder (default 2)"
				}
			},
			"required": ["id"]
		}`),
	}, s.handleGetSuggestion)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "apply_suggestions",
		Description: "Rewrite closure-style builders in place. Without id, applies every always-safe fix of the project (or of rel_path). With id, applies that suggestion even when it needs review. The project is rescanned afterwards.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project_name": {
					"type": "string",
					"description": "Name of the project"
				},
				"rel_path": {
					"type": "string",
					"description": "Limit to one file, relative to the project root"
				},
				"id": {
					"type": "integer",
					"description": "Apply a single suggestion"
				},
				"include_review": {
					"type": "boolean",
					"description": "Also apply needs-review fixes (they may contain todo!() placeholders)"
				},
				"dry_run": {
					"type": "boolean",
					"description": "Return the new file contents without writing"
				}
			},
			"required": ["project_name"]
		}`),
	}, s.handleApplySuggestions)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "migrate_snippet",
		Description: "Migrate a Rust snippet without touching disk. Types come from function parameters and let annotations, so include the enclosing fn when the receiver type matters. A bare block is wrapped in a function.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"source": {
					"type": "string",
					"description": "Rust source text"
				},
				"multiline_setters": {
					"type": "boolean",
					"description": "Put each setter call on its own line"
				},
				"include_review": {
					"type": "boolean",
					"description": "Also apply needs-review fixes (default true)"
				}
			},
			"required": ["source"]
		}`),
	}, s.handleMigrateSnippet)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

func getStringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	f, ok := args[key].(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

func getBoolArg(args map[string]any, key string, defaultVal bool) bool {
	b, ok := args[key].(bool)
	if !ok {
		return defaultVal
	}
	return b
}
