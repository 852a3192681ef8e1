package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DeusData/builder-migrate/internal/diag"
	"github.com/DeusData/builder-migrate/internal/diagfmt"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] <file.rs|directory>",
		Short: "Report closure-style builders",
		Long:  "Check a Rust file or every Rust file below a directory and print one diagnostic per closure-style builder, with its builder-value replacement.",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	cmd.Flags().String("format", "text", "output format (text|json)")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	cmd.Flags().Bool("no-fixes", false, "do not print suggested replacements")
	cmd.Flags().Int("max-diagnostics", 0, "maximum number of diagnostics to show (0 = all)")
	cmd.Flags().Bool("deny", false, "exit non-zero when a closure-style builder is found")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return err
	}
	noFixes, err := cmd.Flags().GetBool("no-fixes")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	deny, err := cmd.Flags().GetBool("deny")
	if err != nil {
		return err
	}

	t, err := loadTarget(cmd.Context(), cmd, args[0])
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	fs, bag, _, err := analyze(cmd.Context(), t, maxDiagnostics)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	pathMode := diagfmt.PathModeRelative
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = diagfmt.JSON(out, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     true,
			IncludeFixes:     !noFixes,
		})
	default:
		err = diagfmt.Pretty(out, bag, fs, diagfmt.PrettyOpts{
			Color:     !color.NoColor,
			PathMode:  pathMode,
			ShowNotes: true,
			ShowFixes: !noFixes,
		})
		if err == nil && bag.Len() > 0 {
			_, err = fmt.Fprintf(out, "%d closure-style builder(s) in %d file(s)\n", countCode(bag, diag.BuilderClosure), len(t.files))
		}
	}
	if err != nil {
		return err
	}

	if deny && countCode(bag, diag.BuilderClosure) > 0 {
		return errFindings
	}
	return nil
}

func countCode(bag *diag.Bag, code diag.Code) int {
	n := 0
	for _, d := range bag.Items() {
		if d.Code == code {
			n++
		}
	}
	return n
}
