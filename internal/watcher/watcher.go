// Package watcher polls scanned projects and re-runs the scan when their
// Rust sources change.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/DeusData/builder-migrate/internal/discover"
	"github.com/DeusData/builder-migrate/internal/store"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

type projectState struct {
	snapshot map[string]fileSnapshot
	interval time.Duration
	nextPoll time.Time
}

// IndexFunc is called with the project to rescan.
type IndexFunc func(ctx context.Context, projectName, rootPath string) error

// ProjectLister lists the projects to watch. *store.Store implements it.
type ProjectLister interface {
	ListProjects() ([]*store.Project, error)
}

var _ ProjectLister = (*store.Store)(nil)

// StaticProjects is a fixed ProjectLister.
type StaticProjects []*store.Project

func (p StaticProjects) ListProjects() ([]*store.Project, error) { return p, nil }

// Watcher polls projects for file changes and triggers rescans.
type Watcher struct {
	lister   ProjectLister
	indexFn  IndexFunc
	projects map[string]*projectState
	ctx      context.Context
}

// New creates a Watcher. indexFn is called when file changes are detected.
func New(lister ProjectLister, indexFn IndexFunc) *Watcher {
	return &Watcher{
		lister:   lister,
		indexFn:  indexFn,
		projects: make(map[string]*projectState),
		ctx:      context.Background(),
	}
}

// Run blocks until ctx is cancelled. Ticks at baseInterval, polling each
// project only when its adaptive interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	w.ctx = ctx
	ticker := time.NewTicker(baseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollAll()
		}
	}
}

// pollAll polls each listed project that is due.
func (w *Watcher) pollAll() {
	projects, err := w.lister.ListProjects()
	if err != nil {
		slog.Warn("watcher.list_projects", "err", err)
		return
	}

	now := time.Now()
	for _, proj := range projects {
		state, exists := w.projects[proj.Name]
		if !exists {
			state = &projectState{}
			w.projects[proj.Name] = state
		}
		if exists && now.Before(state.nextPoll) {
			continue
		}
		w.pollProject(proj, state)
	}
}

// pollProject compares a fresh snapshot with the previous one. The first
// poll only records a baseline.
func (w *Watcher) pollProject(proj *store.Project, state *projectState) {
	if _, err := os.Stat(proj.RootPath); err != nil {
		slog.Warn("watcher.root_gone", "project", proj.Name, "path", proj.RootPath)
		state.nextPoll = time.Now().Add(maxInterval)
		return
	}

	snap, err := captureSnapshot(w.ctx, proj.RootPath)
	if err != nil {
		slog.Warn("watcher.snapshot", "project", proj.Name, "err", err)
		state.nextPoll = time.Now().Add(state.interval)
		return
	}

	interval := pollInterval(len(snap))

	if state.snapshot == nil {
		slog.Debug("watcher.baseline", "project", proj.Name, "files", len(snap))
		state.snapshot = snap
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	if snapshotsEqual(state.snapshot, snap) {
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	slog.Info("watcher.changed", "project", proj.Name, "files", len(snap))
	if err := w.indexFn(w.ctx, proj.Name, proj.RootPath); err != nil {
		slog.Warn("watcher.index", "project", proj.Name, "err", err)
		// keep the old snapshot so the next cycle retries
		state.nextPoll = time.Now().Add(interval)
		return
	}

	state.snapshot = snap
	state.interval = interval
	state.nextPoll = time.Now().Add(interval)
}

// captureSnapshot records mtime and size of every discovered file.
func captureSnapshot(ctx context.Context, rootPath string) (map[string]fileSnapshot, error) {
	files, err := discover.Discover(ctx, rootPath, nil)
	if err != nil {
		return nil, err
	}

	snap := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		info, statErr := os.Stat(f.Path)
		if statErr != nil {
			continue
		}
		snap[f.RelPath] = fileSnapshot{modTime: info.ModTime(), size: info.Size()}
	}
	return snap, nil
}

func snapshotsEqual(a, b map[string]fileSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, aSnap := range a {
		bSnap, ok := b[path]
		if !ok {
			return false
		}
		if !aSnap.modTime.Equal(bSnap.modTime) || aSnap.size != bSnap.size {
			return false
		}
	}
	return true
}

// pollInterval is 1s plus 1s per 500 files, capped at maxInterval.
func pollInterval(fileCount int) time.Duration {
	d := baseInterval + time.Duration(fileCount/500)*time.Second
	return min(d, maxInterval)
}
