package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeusData/builder-migrate/internal/diag"
	"github.com/DeusData/builder-migrate/internal/discover"
	"github.com/DeusData/builder-migrate/internal/pipeline"
	"github.com/DeusData/builder-migrate/internal/store"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <directory>",
		Short: "Scan a project into the suggestion store",
		Long:  "Check every changed Rust file of a project and keep the resulting suggestions in the store. Unchanged files are skipped by content hash.",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}
}

func newSuggestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggestions <project|directory>",
		Short: "List stored suggestions of a scanned project",
		Args:  cobra.ExactArgs(1),
		RunE:  runSuggestions,
	}
	cmd.Flags().String("file", "", "only suggestions of this file (relative to the project root)")
	cmd.Flags().String("code", "", "only this code (BM0001|BM0002)")
	cmd.Flags().Int("limit", 0, "maximum number of suggestions (0 = all)")
	cmd.Flags().String("format", "text", "output format (text|json)")
	return cmd
}

// openStore opens --db, or the default database.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, err := cmd.Flags().GetString("db")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return store.Open()
	}
	return store.OpenPath(path)
}

// projectRoot resolves a directory argument and its settings.
func projectRoot(cmd *cobra.Command, path string) (string, pipeline.Settings, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", pipeline.Settings{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", pipeline.Settings{}, err
	}
	if !info.IsDir() {
		return "", pipeline.Settings{}, fmt.Errorf("%s is not a directory", path)
	}
	if !discover.IsCrateRoot(abs) {
		slog.Warn("scan.not_crate_root", "path", abs)
	}
	cfg, err := loadConfig(cmd, abs)
	if err != nil {
		return "", pipeline.Settings{}, err
	}
	settings, err := pipeline.SettingsFromConfig(cfg)
	return abs, settings, err
}

func runScan(cmd *cobra.Command, args []string) error {
	root, settings, err := projectRoot(cmd, args[0])
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	s, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	defer s.Close()

	sum, err := runPipeline(cmd.Context(), s, root, settings)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return printSummary(cmd.OutOrStdout(), s, pipeline.ProjectNameFromPath(root), sum)
}

func runPipeline(ctx context.Context, s *store.Store, root string, settings pipeline.Settings) (pipeline.Summary, error) {
	return pipeline.New(ctx, s, root, settings).Run()
}

func printSummary(w io.Writer, s *store.Store, project string, sum pipeline.Summary) error {
	counts, err := s.CountSuggestions(project)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s: %d file(s), %d changed, %d removed, %d failed; %d closure-style builder(s), %d left unchanged (%s)\n",
		project, sum.Files, sum.Changed, sum.Removed, sum.Failed,
		counts["BM0001"], counts["BM0002"], sum.Elapsed.Round(time.Millisecond)); err != nil {
		return err
	}
	if sum.Serenity != "" {
		_, err = fmt.Fprintf(w, "  serenity %s\n", sum.Serenity)
	}
	return err
}

func runSuggestions(cmd *cobra.Command, args []string) error {
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	code, err := cmd.Flags().GetString("code")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if code != "" {
		if _, ok := diag.ParseCode(code); !ok {
			return fmt.Errorf("unknown code %q", code)
		}
	}

	s, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("suggestions: %w", err)
	}
	defer s.Close()

	project := args[0]
	if info, statErr := os.Stat(project); statErr == nil && info.IsDir() {
		abs, absErr := filepath.Abs(project)
		if absErr != nil {
			return absErr
		}
		project = pipeline.ProjectNameFromPath(abs)
	}
	if _, err := s.GetProject(project); err != nil {
		return fmt.Errorf("suggestions: %w", err)
	}

	sgs, err := s.ListSuggestions(project, store.SuggestionFilter{RelPath: file, Code: code, Limit: limit})
	if err != nil {
		return fmt.Errorf("suggestions: %w", err)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if sgs == nil {
			sgs = []*store.Suggestion{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sgs)
	}
	for _, sg := range sgs {
		fmt.Fprintf(out, "#%d %s:%d:%d: %s %s: %s\n", sg.ID, sg.RelPath, sg.Line, sg.Col, sg.Severity, sg.Code, sg.Message)
		for _, n := range sg.Notes {
			fmt.Fprintf(out, "  note: %s\n", n)
		}
		if sg.NewText != "" {
			fmt.Fprintf(out, "  help: replace with (%s)\n", sg.Applicability)
			for _, line := range strings.Split(sg.NewText, "\n") {
				fmt.Fprintf(out, "      %s\n", line)
			}
		}
	}
	return nil
}
