package lang

import "testing"

func TestForExtension(t *testing.T) {
	spec := ForExtension(".rs")
	if spec == nil {
		t.Fatal("ForExtension(.rs) = nil")
	}
	if spec.Language != Rust {
		t.Errorf("ForExtension(.rs).Language = %s, want %s", spec.Language, Rust)
	}
}

func TestForLanguage(t *testing.T) {
	for _, lang := range AllLanguages() {
		if spec := ForLanguage(lang); spec == nil {
			t.Errorf("ForLanguage(%s) = nil", lang)
		}
	}
}

func TestUnknownExtension(t *testing.T) {
	if spec := ForExtension(".go"); spec != nil {
		t.Errorf("ForExtension(.go) should be nil, got %v", spec)
	}
	if _, ok := LanguageForExtension(".py"); ok {
		t.Error("LanguageForExtension(.py) should not resolve")
	}
}

func TestRustSpec(t *testing.T) {
	spec := ForLanguage(Rust)
	if spec == nil {
		t.Fatal("Rust spec not registered")
	}
	if !Is("expression_statement", spec.StatementNodeTypes) {
		t.Error("expression_statement must be a statement kind")
	}
	if Is("call_expression", spec.StatementNodeTypes) {
		t.Error("call_expression is an expression, not a statement")
	}
	if !Is("line_comment", spec.CommentNodeTypes) {
		t.Error("line_comment must be a comment kind")
	}
}
