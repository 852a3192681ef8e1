package lang

// Language represents a supported programming language.
type Language string

const (
	Rust Language = "rust"
	// TOML is only parsed for Cargo manifests.
	TOML Language = "toml"
)

// AllLanguages returns all supported languages.
func AllLanguages() []Language {
	return []Language{Rust, TOML}
}

// LanguageSpec defines the tree-sitter node types the host tree lowering
// relies on for a language.
type LanguageSpec struct {
	Language          Language
	FileExtensions    []string
	FunctionNodeTypes []string
	ClosureNodeTypes  []string
	CallNodeTypes     []string
	// MemberNodeTypes are callee kinds that turn a call into a method call.
	MemberNodeTypes []string
	BlockNodeTypes  []string
	// StatementNodeTypes lists block children that are statements rather
	// than the block's tail expression.
	StatementNodeTypes  []string
	AssignmentNodeTypes []string
	ImportNodeTypes     []string
	// CommentNodeTypes are extras that may appear between any two children.
	CommentNodeTypes  []string
	PackageIndicators []string
}

// registry maps file extensions to language specs.
var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".rs").
func ForExtension(ext string) *LanguageSpec {
	return registry[ext]
}

// ForLanguage returns the LanguageSpec for a language.
func ForLanguage(lang Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == lang {
			return spec
		}
	}
	return nil
}

// LanguageForExtension returns the Language for a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	spec := registry[ext]
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}

// Is reports whether kind is one of kinds.
func Is(kind string, kinds []string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
