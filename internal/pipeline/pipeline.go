// Package pipeline scans a Rust project for closure-style builders and keeps
// the resulting suggestions in the store, re-checking only changed files.
package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/builder-migrate/internal/cargo"
	"github.com/DeusData/builder-migrate/internal/config"
	"github.com/DeusData/builder-migrate/internal/diag"
	"github.com/DeusData/builder-migrate/internal/discover"
	"github.com/DeusData/builder-migrate/internal/lint"
	"github.com/DeusData/builder-migrate/internal/rewrite"
	"github.com/DeusData/builder-migrate/internal/source"
	"github.com/DeusData/builder-migrate/internal/store"
	"github.com/DeusData/builder-migrate/internal/typeck"
)

// Settings bundle what the checker needs for one project.
type Settings struct {
	Catalogue *typeck.Catalogue
	Registry  *rewrite.Registry
	Options   lint.Options
	Ignore    []string
}

// SettingsFromConfig builds Settings from a loaded config. A nil cfg uses
// the defaults.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	base, err := typeck.Default()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Catalogue: cfg.Catalogue(base),
		Registry:  cfg.Registry(),
		Options:   cfg.LintOptions(),
		Ignore:    cfg.Ignore,
	}, nil
}

// Summary reports what one run did.
type Summary struct {
	Files       int
	Changed     int
	Removed     int
	Failed      int
	Suggestions int
	Elapsed     time.Duration
	// Serenity is the version requirement from the project's Cargo.toml,
	// empty when there is none.
	Serenity string
}

// Pipeline scans one project into the store.
type Pipeline struct {
	ctx         context.Context
	Store       *store.Store
	RepoPath    string
	ProjectName string
	Settings    Settings
}

// New creates a new Pipeline.
func New(ctx context.Context, s *store.Store, repoPath string, settings Settings) *Pipeline {
	return &Pipeline{
		ctx:         ctx,
		Store:       s,
		RepoPath:    repoPath,
		ProjectName: ProjectNameFromPath(repoPath),
		Settings:    settings,
	}
}

// ProjectNameFromPath derives a unique project name from an absolute path
// by replacing path separators with dashes and trimming the leading dash.
func ProjectNameFromPath(absPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(absPath))
	name := strings.ReplaceAll(cleaned, "/", "-")
	name = strings.TrimLeft(name, "-")
	if name == "" {
		return "root"
	}
	return name
}

// Run discovers the project's Rust files, re-checks the ones whose content
// hash changed and replaces their stored suggestions in one transaction.
func (p *Pipeline) Run() (Summary, error) {
	start := time.Now()
	slog.Info("pipeline.start", "project", p.ProjectName, "path", p.RepoPath)

	if err := p.ctx.Err(); err != nil {
		return Summary{}, err
	}
	files, err := discover.Discover(p.ctx, p.RepoPath, &discover.Options{Ignore: p.Settings.Ignore})
	if err != nil {
		return Summary{}, fmt.Errorf("discover: %w", err)
	}
	slog.Info("pipeline.discovered", "files", len(files))

	hashes := hashFiles(files)
	sum := Summary{Files: len(files), Serenity: serenityVersion(p.RepoPath)}

	err = p.Store.WithTransaction(func(tx *store.Store) error {
		if err := tx.UpsertProject(p.ProjectName, p.RepoPath); err != nil {
			return fmt.Errorf("upsert project: %w", err)
		}
		stored, err := tx.GetFileHashes(p.ProjectName)
		if err != nil {
			return err
		}

		sum.Removed = removeDeletedFiles(tx, p.ProjectName, files, stored)

		var changed []discover.FileInfo
		for i, f := range files {
			if hashes[i] == "" || stored[f.RelPath] != hashes[i] {
				changed = append(changed, f)
			}
		}
		sum.Changed = len(changed)
		slog.Info("incremental.classify", "changed", len(changed), "unchanged", len(files)-len(changed), "total", len(files))
		if len(changed) == 0 {
			slog.Info("incremental.noop", "reason", "no_changes")
			return nil
		}

		results, err := Analyze(p.ctx, source.NewFileSetWithBase(p.RepoPath), changed, p.Settings)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Err != nil {
				sum.Failed++
				slog.Warn("pipeline.file.err", "path", r.File.RelPath, "err", r.Err)
				continue
			}
			sgs := Suggestions(r.FileSet, r.Diagnostics)
			if err := tx.ReplaceFileSuggestions(p.ProjectName, r.File.RelPath, sgs); err != nil {
				return err
			}
			if err := tx.UpsertFileHash(p.ProjectName, r.File.RelPath, r.Hash); err != nil {
				return err
			}
			sum.Suggestions += len(sgs)
		}
		return nil
	})
	if err != nil {
		return sum, err
	}

	sum.Elapsed = time.Since(start)
	slog.Info("pipeline.done", "project", p.ProjectName, "changed", sum.Changed,
		"suggestions", sum.Suggestions, "elapsed", sum.Elapsed)
	return sum, nil
}

// serenityVersion reports the serenity requirement of the crate at root and
// warns when it is not a 0.11 release.
func serenityVersion(root string) string {
	m, err := cargo.Load(root)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("pipeline.manifest.err", "err", err)
		}
		return ""
	}
	dep, ok := m.Serenity()
	if !ok {
		slog.Debug("pipeline.manifest", "crate", m.Package, "serenity", "none")
		return ""
	}
	slog.Info("pipeline.manifest", "crate", m.Package, "serenity", dep.Version)
	if major, minor, ok := dep.MajorMinor(); ok && (major != 0 || minor != 11) {
		slog.Warn("pipeline.manifest.version", "serenity", dep.Version, "expected", "0.11")
	}
	return dep.Version
}

// removeDeletedFiles drops suggestions and hashes of files that no longer
// exist on disk.
func removeDeletedFiles(tx *store.Store, project string, current []discover.FileInfo, stored map[string]string) int {
	currentSet := make(map[string]bool, len(current))
	for _, f := range current {
		currentSet[f.RelPath] = true
	}
	removed := 0
	for relPath := range stored {
		if currentSet[relPath] {
			continue
		}
		_ = tx.DeleteFileSuggestions(project, relPath)
		_ = tx.DeleteFileHash(project, relPath)
		slog.Info("incremental.removed", "file", relPath)
		removed++
	}
	return removed
}

// FileResult is the outcome of checking one file.
type FileResult struct {
	File        discover.FileInfo
	FileSet     *source.FileSet
	ID          source.FileID
	Hash        string
	Diagnostics []diag.Diagnostic
	Err         error
}

// Analyze loads files into fs and checks them in parallel. Per-file
// failures are reported in FileResult.Err; the returned error is only set
// when ctx is cancelled.
func Analyze(ctx context.Context, fs *source.FileSet, files []discover.FileInfo, settings Settings) ([]FileResult, error) {
	results := make([]FileResult, len(files))
	numWorkers := min(runtime.NumCPU(), max(len(files), 1))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = checkFile(fs, f, settings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func checkFile(fs *source.FileSet, f discover.FileInfo, settings Settings) FileResult {
	r := FileResult{File: f, FileSet: fs}
	content, err := os.ReadFile(f.Path)
	if err != nil {
		r.Err = fmt.Errorf("read: %w", err)
		return r
	}
	r.Hash = contentHash(content)
	r.ID = fs.Add(f.Path, content, 0)

	bag := diag.NewBag(0)
	checker := lint.NewChecker(fs, settings.Catalogue, settings.Registry, settings.Options)
	if _, err := checker.CheckFile(r.ID, diag.BagReporter{Bag: bag}); err != nil {
		r.Err = err
		return r
	}
	bag.Sort()
	r.Diagnostics = bag.Items()
	slog.Debug("pipeline.file.checked", "path", f.RelPath, "diagnostics", len(r.Diagnostics))
	return r
}

// Suggestions converts diagnostics into store rows.
func Suggestions(fs *source.FileSet, ds []diag.Diagnostic) []*store.Suggestion {
	out := make([]*store.Suggestion, 0, len(ds))
	for _, d := range ds {
		pos, _ := fs.Resolve(d.Primary)
		sg := &store.Suggestion{
			StartByte: int(d.Primary.Start),
			EndByte:   int(d.Primary.End),
			Line:      int(pos.Line),
			Col:       int(pos.Col),
			Severity:  d.Severity.String(),
			Code:      d.Code.ID(),
			Message:   d.Message,
		}
		for _, n := range d.Notes {
			if n.Msg != d.Message {
				sg.Notes = append(sg.Notes, n.Msg)
			}
		}
		if len(d.Fixes) > 0 && len(d.Fixes[0].Edits) > 0 {
			edit := d.Fixes[0].Edits[0]
			sg.OldText = edit.OldText
			sg.NewText = edit.NewText
			sg.Applicability = d.Fixes[0].Applicability.String()
		} else {
			sg.OldText, _ = fs.Snippet(d.Primary)
		}
		out = append(out, sg)
	}
	return out
}

// hashFiles hashes files in parallel; unreadable files get "".
func hashFiles(files []discover.FileInfo) []string {
	hashes := make([]string, len(files))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, f := range files {
		g.Go(func() error {
			h, err := fileHash(f.Path)
			if err == nil {
				hashes[i] = h
			}
			return nil
		})
	}
	_ = g.Wait()
	return hashes
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func contentHash(content []byte) string {
	h := xxh3.New()
	_, _ = h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
