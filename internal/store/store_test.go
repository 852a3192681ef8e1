package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.UpsertProject("bot", "/tmp/bot"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	return s
}

func suggestion(start int, applicability string, notes ...string) *Suggestion {
	return &Suggestion{
		StartByte:     start,
		EndByte:       start + 10,
		Line:          1,
		Col:           start + 1,
		Severity:      "WARNING",
		Code:          "BM0001",
		Message:       "closure-style builders will break in the next version of serenity",
		OldText:       "|m| m.x(1)",
		NewText:       "M::new().x(1)",
		Applicability: applicability,
		Notes:         notes,
	}
}

func TestOpenPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.db")
	s, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if s.Path() != path {
		t.Errorf("expected path %s, got %s", path, s.Path())
	}
	if err := s.UpsertProject("bot", "/tmp/bot"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	s.Close()

	s, err = OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	p, err := s.GetProject("bot")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if p.RootPath != "/tmp/bot" {
		t.Errorf("expected /tmp/bot, got %s", p.RootPath)
	}
}

func TestProjects(t *testing.T) {
	s := openTest(t)
	if err := s.UpsertProject("bot", "/srv/bot"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	projects, err := s.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 || projects[0].RootPath != "/srv/bot" {
		t.Fatalf("unexpected projects: %+v", projects)
	}
	if _, err := s.GetProject("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileHashes(t *testing.T) {
	s := openTest(t)

	if err := s.UpsertFileHash("bot", "src/main.rs", "abc123"); err != nil {
		t.Fatalf("UpsertFileHash: %v", err)
	}
	hashes, err := s.GetFileHashes("bot")
	if err != nil {
		t.Fatalf("GetFileHashes: %v", err)
	}
	if hashes["src/main.rs"] != "abc123" {
		t.Errorf("expected abc123, got %s", hashes["src/main.rs"])
	}

	if err := s.UpsertFileHash("bot", "src/main.rs", "def456"); err != nil {
		t.Fatalf("UpsertFileHash update: %v", err)
	}
	hashes, _ = s.GetFileHashes("bot")
	if hashes["src/main.rs"] != "def456" {
		t.Errorf("expected def456, got %s", hashes["src/main.rs"])
	}

	if err := s.DeleteFileHash("bot", "src/main.rs"); err != nil {
		t.Fatalf("DeleteFileHash: %v", err)
	}
	hashes, _ = s.GetFileHashes("bot")
	if len(hashes) != 0 {
		t.Errorf("expected no hashes, got %v", hashes)
	}
}

func TestSuggestions(t *testing.T) {
	s := openTest(t)

	first := []*Suggestion{suggestion(40, "always-safe"), suggestion(0, "needs-review", "CreateButton requires `custom_id`")}
	if err := s.ReplaceFileSuggestions("bot", "src/a.rs", first); err != nil {
		t.Fatalf("ReplaceFileSuggestions: %v", err)
	}
	if err := s.ReplaceFileSuggestions("bot", "src/b.rs", []*Suggestion{suggestion(5, "always-safe")}); err != nil {
		t.Fatalf("ReplaceFileSuggestions b: %v", err)
	}

	all, err := s.ListSuggestions("bot", SuggestionFilter{})
	if err != nil {
		t.Fatalf("ListSuggestions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(all))
	}
	if all[0].RelPath != "src/a.rs" || all[0].StartByte != 0 || all[2].RelPath != "src/b.rs" {
		t.Errorf("unexpected order: %+v", all)
	}
	if len(all[0].Notes) != 1 || all[0].Notes[0] != "CreateButton requires `custom_id`" {
		t.Errorf("unexpected notes: %v", all[0].Notes)
	}

	safe, _ := s.ListSuggestions("bot", SuggestionFilter{Applicability: "always-safe"})
	if len(safe) != 2 {
		t.Errorf("expected 2 safe suggestions, got %d", len(safe))
	}
	page, _ := s.ListSuggestions("bot", SuggestionFilter{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].StartByte != 40 {
		t.Errorf("unexpected page: %+v", page)
	}

	got, err := s.GetSuggestion(first[0].ID)
	if err != nil {
		t.Fatalf("GetSuggestion: %v", err)
	}
	if got.NewText != "M::new().x(1)" || got.Project != "bot" {
		t.Errorf("unexpected suggestion: %+v", got)
	}

	// rescanning a file replaces its rows only
	if err := s.ReplaceFileSuggestions("bot", "src/a.rs", nil); err != nil {
		t.Fatalf("ReplaceFileSuggestions empty: %v", err)
	}
	counts, err := s.CountSuggestions("bot")
	if err != nil {
		t.Fatalf("CountSuggestions: %v", err)
	}
	if counts["BM0001"] != 1 {
		t.Errorf("expected 1 remaining, got %v", counts)
	}

	if err := s.DeleteSuggestion(all[2].ID); err != nil {
		t.Fatalf("DeleteSuggestion: %v", err)
	}
	if _, err := s.GetSuggestion(all[2].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	s := openTest(t)
	if err := s.UpsertFileHash("bot", "src/a.rs", "h"); err != nil {
		t.Fatalf("UpsertFileHash: %v", err)
	}
	if err := s.ReplaceFileSuggestions("bot", "src/a.rs", []*Suggestion{suggestion(0, "always-safe")}); err != nil {
		t.Fatalf("ReplaceFileSuggestions: %v", err)
	}
	if err := s.DeleteProject("bot"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	hashes, _ := s.GetFileHashes("bot")
	list, _ := s.ListSuggestions("bot", SuggestionFilter{})
	if len(hashes) != 0 || len(list) != 0 {
		t.Errorf("expected cascade, got %d hashes and %d suggestions", len(hashes), len(list))
	}
}

func TestWithTransactionRollback(t *testing.T) {
	s := openTest(t)
	err := s.WithTransaction(func(tx *Store) error {
		if err := tx.ReplaceFileSuggestions("bot", "src/a.rs", []*Suggestion{suggestion(0, "always-safe")}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	list, _ := s.ListSuggestions("bot", SuggestionFilter{})
	if len(list) != 0 {
		t.Errorf("expected rollback, got %d suggestions", len(list))
	}
}
