// Package cargo reads the parts of a Cargo manifest the migration cares
// about: the package name and which serenity release it depends on.
package cargo

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/builder-migrate/internal/lang"
	"github.com/DeusData/builder-migrate/internal/parser"
)

// ManifestName is the manifest file of a crate or workspace.
const ManifestName = "Cargo.toml"

var skipKinds = []string{"comment"}

// Dependency is one entry of a dependency table.
type Dependency struct {
	Name      string // key in the table
	Package   string // `package = "..."` rename target, if any
	Version   string
	Git       string
	Branch    string
	Path      string
	Features  []string
	Workspace bool // `workspace = true`
	Table     string
}

// Crate returns the crate the dependency refers to.
func (d Dependency) Crate() string {
	if d.Package != "" {
		return d.Package
	}
	return d.Name
}

// MajorMinor parses the leading major and minor numbers of Version,
// ignoring requirement operators like ^, ~ and =.
func (d Dependency) MajorMinor() (int, int, bool) {
	v := strings.TrimLeft(strings.TrimSpace(d.Version), "^~=<> ")
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err := strconv.Atoi(strings.TrimRight(parts[1], "*"))
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// Manifest is a parsed Cargo.toml.
type Manifest struct {
	Path         string
	Package      string
	Dependencies []Dependency
}

// Serenity returns the serenity dependency, resolving `workspace = true`
// against the manifest's own [workspace.dependencies].
func (m *Manifest) Serenity() (Dependency, bool) {
	var found *Dependency
	var inherited *Dependency
	for i := range m.Dependencies {
		d := &m.Dependencies[i]
		if d.Crate() != "serenity" {
			continue
		}
		if d.Table == "workspace.dependencies" {
			inherited = d
			continue
		}
		if found == nil {
			found = d
		}
	}
	switch {
	case found == nil && inherited == nil:
		return Dependency{}, false
	case found == nil:
		return *inherited, true
	case found.Workspace && inherited != nil && found.Version == "":
		d := *found
		d.Version = inherited.Version
		d.Git = inherited.Git
		return d, true
	default:
		return *found, true
	}
}

// Load reads the manifest in dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Parse parses manifest text.
func Parse(data []byte) (*Manifest, error) {
	tree, err := parser.Parse(lang.TOML, data)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("invalid TOML")
	}

	r := &reader{src: data, m: &Manifest{}, deps: map[string]int{}}
	for _, child := range parser.NamedChildren(root, skipKinds) {
		switch child.Kind() {
		case "pair":
			r.pair(nil, child)
		case "table":
			r.table(child)
		}
	}
	return r.m, nil
}

type reader struct {
	src  []byte
	m    *Manifest
	deps map[string]int // table + "\x00" + name -> index in m.Dependencies
}

func (r *reader) table(n *tree_sitter.Node) {
	var path []string
	for _, child := range parser.NamedChildren(n, skipKinds) {
		switch child.Kind() {
		case "bare_key", "quoted_key", "dotted_key":
			if path == nil {
				path = r.key(child)
			}
		case "pair":
			r.pair(path, child)
		}
	}
}

func (r *reader) pair(prefix []string, n *tree_sitter.Node) {
	children := parser.NamedChildren(n, skipKinds)
	if len(children) != 2 {
		return
	}
	path := append(append([]string(nil), prefix...), r.key(children[0])...)
	r.assign(path, children[1])
}

// assign records the value at path when it belongs to [package] or a
// dependency table.
func (r *reader) assign(path []string, value *tree_sitter.Node) {
	if len(path) == 2 && path[0] == "package" && path[1] == "name" {
		r.m.Package = r.str(value)
		return
	}

	i := depTableIndex(path)
	if i < 0 || i+1 >= len(path) {
		return
	}
	table := strings.Join(path[:i+1], ".")
	d := r.dep(table, path[i+1])
	rest := path[i+2:]

	switch {
	case len(rest) == 0 && value.Kind() == "string":
		d.Version = r.str(value)
	case len(rest) == 0 && value.Kind() == "inline_table":
		for _, p := range parser.NamedChildren(value, skipKinds) {
			if p.Kind() != "pair" {
				continue
			}
			kv := parser.NamedChildren(p, skipKinds)
			if len(kv) == 2 {
				r.field(d, strings.Join(r.key(kv[0]), "."), kv[1])
			}
		}
	case len(rest) == 1:
		r.field(d, rest[0], value)
	}
}

func (r *reader) field(d *Dependency, name string, value *tree_sitter.Node) {
	switch name {
	case "version":
		d.Version = r.str(value)
	case "git":
		d.Git = r.str(value)
	case "branch":
		d.Branch = r.str(value)
	case "path":
		d.Path = r.str(value)
	case "package":
		d.Package = r.str(value)
	case "workspace":
		d.Workspace = parser.NodeText(value, r.src) == "true"
	case "features":
		if value.Kind() != "array" {
			return
		}
		for _, item := range parser.NamedChildren(value, skipKinds) {
			if item.Kind() == "string" {
				d.Features = append(d.Features, r.str(item))
			}
		}
	}
}

func (r *reader) dep(table, name string) *Dependency {
	k := table + "\x00" + name
	if i, ok := r.deps[k]; ok {
		return &r.m.Dependencies[i]
	}
	r.m.Dependencies = append(r.m.Dependencies, Dependency{Name: name, Table: table})
	r.deps[k] = len(r.m.Dependencies) - 1
	return &r.m.Dependencies[len(r.m.Dependencies)-1]
}

// depTableIndex returns the index of the dependency table segment in path:
// dependencies, dev-dependencies, build-dependencies, also under
// workspace.* and target.<cfg>.*.
func depTableIndex(path []string) int {
	for i, seg := range path {
		switch seg {
		case "dependencies", "dev-dependencies", "build-dependencies":
			return i
		}
	}
	return -1
}

func (r *reader) key(n *tree_sitter.Node) []string {
	switch n.Kind() {
	case "dotted_key":
		var parts []string
		for _, child := range parser.NamedChildren(n, skipKinds) {
			parts = append(parts, r.key(child)...)
		}
		return parts
	case "quoted_key":
		return []string{unquote(parser.NodeText(n, r.src))}
	default:
		return []string{strings.TrimSpace(parser.NodeText(n, r.src))}
	}
}

func (r *reader) str(n *tree_sitter.Node) string {
	return unquote(parser.NodeText(n, r.src))
}

func unquote(s string) string {
	for _, q := range []string{`"""`, `'''`} {
		if len(s) >= 6 && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return strings.TrimPrefix(s[3:len(s)-3], "\n")
		}
	}
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	if len(s) >= 2 && s[0] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return strings.Trim(s, `"`)
	}
	return s
}
