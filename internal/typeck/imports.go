package typeck

import (
	"github.com/DeusData/builder-migrate/internal/hir"
)

// UseMap resolves names brought into scope by `use` declarations.
type UseMap struct {
	names map[string][]string
	globs [][]string
}

// NewUseMap indexes the imports of a file. Later imports of the same name
// shadow earlier ones.
func NewUseMap(uses []hir.Use) *UseMap {
	m := &UseMap{names: make(map[string][]string, len(uses))}
	for _, u := range uses {
		if u.Glob {
			m.globs = append(m.globs, u.Path)
			continue
		}
		m.names[u.Name] = u.Path
	}
	return m
}

// Expand replaces the first segment of segs with the path it was imported
// from. The second result is false when the first segment is not imported.
func (m *UseMap) Expand(segs []string) ([]string, bool) {
	if len(segs) == 0 {
		return nil, false
	}
	full, ok := m.names[segs[0]]
	if !ok {
		return segs, false
	}
	out := make([]string, 0, len(full)+len(segs)-1)
	out = append(out, full...)
	return append(out, segs[1:]...), true
}

// Globs returns the module paths imported with `::*`.
func (m *UseMap) Globs() [][]string {
	return m.globs
}

// resolvePath turns written path segments into a nominal type. Builder
// names reached through the builder module, directly or by glob import,
// resolve to the catalogue's canonical path.
func resolvePath(cat *Catalogue, uses *UseMap, segs []string) hir.Ty {
	if len(segs) == 0 {
		return hir.Ty{}
	}
	path, imported := uses.Expand(segs)
	if !imported && len(segs) == 1 {
		for _, g := range uses.Globs() {
			if cat.IsBuilderModule(g) && cat.IsBuilder(segs[0]) {
				path = []string{cat.Crate, cat.Module, segs[0]}
				break
			}
		}
	}

	switch {
	case len(path) >= 3 && path[0] == cat.Crate && path[1] == cat.Module:
		name := path[len(path)-1]
		if ty, ok := cat.BuilderTy(name); ok {
			return ty
		}
		return hir.Adt(path[0], path[1:]...)
	case len(path) >= 2 && path[0] == cat.Crate:
		return hir.Adt(path[0], path[1:]...)
	case len(path) >= 1 && (path[0] == "crate" || path[0] == "self" || path[0] == "super"):
		return hir.Adt("crate", path[1:]...)
	default:
		return hir.Adt("crate", path...)
	}
}
