package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DeusData/builder-migrate/internal/config"
	"github.com/DeusData/builder-migrate/internal/diag"
	"github.com/DeusData/builder-migrate/internal/discover"
	"github.com/DeusData/builder-migrate/internal/lang"
	"github.com/DeusData/builder-migrate/internal/pipeline"
	"github.com/DeusData/builder-migrate/internal/source"
)

// target is a file or directory to check along with its project settings.
type target struct {
	root     string
	files    []discover.FileInfo
	settings pipeline.Settings
}

// loadTarget resolves path, loads the project config and applies the
// global flag overrides.
func loadTarget(ctx context.Context, cmd *cobra.Command, path string) (*target, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	root := abs
	if !info.IsDir() {
		root = filepath.Dir(abs)
	}

	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return nil, err
	}
	settings, err := pipeline.SettingsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	t := &target{root: root, settings: settings}
	if info.IsDir() {
		t.files, err = discover.Discover(ctx, root, &discover.Options{Ignore: cfg.Ignore})
		if err != nil {
			return nil, fmt.Errorf("discover: %w", err)
		}
		return t, nil
	}

	l, ok := lang.LanguageForExtension(filepath.Ext(abs))
	if !ok || l != lang.Rust {
		return nil, fmt.Errorf("not a Rust source file: %s", path)
	}
	t.files = []discover.FileInfo{{Path: abs, RelPath: filepath.Base(abs), Language: l}}
	return t, nil
}

// loadConfig reads --config or <root>/.buildermigrate.yml and applies
// --strict and --multiline when they were given explicitly.
func loadConfig(cmd *cobra.Command, root string) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = filepath.Join(root, config.FileName)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if f := cmd.Flags().Lookup("strict"); f != nil && f.Changed {
		v, _ := cmd.Flags().GetBool("strict")
		cfg.StrictReceivers = &v
	}
	if f := cmd.Flags().Lookup("multiline"); f != nil && f.Changed {
		v, _ := cmd.Flags().GetBool("multiline")
		cfg.MultilineSetters = &v
	}
	return cfg, nil
}

// analyze checks every file of t. Files that fail to load are logged and
// counted, not fatal.
func analyze(ctx context.Context, t *target, maxDiagnostics int) (*source.FileSet, *diag.Bag, int, error) {
	fs := source.NewFileSetWithBase(t.root)
	results, err := pipeline.Analyze(ctx, fs, t.files, t.settings)
	if err != nil {
		return nil, nil, 0, err
	}

	bag := diag.NewBag(maxDiagnostics)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			slog.Warn("check.file.err", "path", r.File.RelPath, "err", r.Err)
			continue
		}
		for _, d := range r.Diagnostics {
			bag.Add(d)
		}
	}
	bag.Dedup()
	bag.Sort()
	slog.Debug("check.done", "files", len(t.files), "diagnostics", bag.Len(), "failed", failed)
	return fs, bag, failed, nil
}
