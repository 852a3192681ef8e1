package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
	// SyntaxContext identifies the macro expansion a span was produced by.
	// RootContext means the span was written directly in the file.
	SyntaxContext uint32
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	// FileGenerated marks code produced by a tool; its text is never stitched.
	FileGenerated
)

// RootContext is the context of spans that come straight from source text.
const RootContext SyntaxContext = 0

// File captures metadata and content for a single source file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
