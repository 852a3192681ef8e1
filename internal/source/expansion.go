package source

// Expansion records one macro expansion: spans carrying its context were
// produced by the macro invoked at CallSite.
type Expansion struct {
	Macro    string
	CallSite Span
}

// AddExpansion registers an expansion and returns the context that spans
// produced by it should carry.
func (fs *FileSet) AddExpansion(exp Expansion) SyntaxContext {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.nextCtxt++
	fs.expansions[fs.nextCtxt] = exp
	return fs.nextCtxt
}

// WalkChain maps span up its expansion chain until it carries context to.
// The second result is false when the chain ends before reaching to.
func (fs *FileSet) WalkChain(span Span, to SyntaxContext) (Span, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	for span.Ctxt != to {
		if span.Ctxt == RootContext {
			return span, false
		}
		exp, ok := fs.expansions[span.Ctxt]
		if !ok {
			return span, false
		}
		span = exp.CallSite
	}
	return span, true
}

// Snippet returns the source text written at span, following macro
// expansions back to the root context.
func (fs *FileSet) Snippet(span Span) (string, bool) {
	return fs.SnippetIn(span, RootContext)
}

// SnippetIn walks span to context ctxt and slices the file content at the
// resulting range. It fails for generated files, unknown files, chains that
// never reach ctxt and out-of-range spans.
func (fs *FileSet) SnippetIn(span Span, ctxt SyntaxContext) (string, bool) {
	walked, ok := fs.WalkChain(span, ctxt)
	if !ok {
		return "", false
	}
	f := fs.Get(walked.File)
	if f == nil || f.Flags&FileGenerated != 0 {
		return "", false
	}
	if walked.Start > walked.End || int(walked.End) > len(f.Content) {
		return "", false
	}
	return string(f.Content[walked.Start:walked.End]), true
}
