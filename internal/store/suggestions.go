package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Suggestion is one stored diagnostic with its replacement.
type Suggestion struct {
	ID            int64    `json:"id"`
	Project       string   `json:"project"`
	RelPath       string   `json:"rel_path"`
	StartByte     int      `json:"start_byte"`
	EndByte       int      `json:"end_byte"`
	Line          int      `json:"line"`
	Col           int      `json:"col"`
	Severity      string   `json:"severity"`
	Code          string   `json:"code"`
	Message       string   `json:"message"`
	OldText       string   `json:"old_text"`
	NewText       string   `json:"new_text,omitempty"`
	Applicability string   `json:"applicability,omitempty"`
	Notes         []string `json:"notes,omitempty"`
}

// SuggestionFilter narrows ListSuggestions. Zero fields match everything.
type SuggestionFilter struct {
	RelPath       string
	Code          string
	Applicability string
	Limit         int
	Offset        int
}

const suggestionColumns = `id, project, rel_path, start_byte, end_byte, line, col, severity, code, message,
	old_text, new_text, applicability, notes`

func scanSuggestion(scan func(dest ...any) error) (*Suggestion, error) {
	var sg Suggestion
	var notes string
	if err := scan(&sg.ID, &sg.Project, &sg.RelPath, &sg.StartByte, &sg.EndByte, &sg.Line, &sg.Col,
		&sg.Severity, &sg.Code, &sg.Message, &sg.OldText, &sg.NewText, &sg.Applicability, &notes); err != nil {
		return nil, err
	}
	sg.Notes = unmarshalNotes(notes)
	return &sg, nil
}

// ReplaceFileSuggestions deletes the stored suggestions of one file and
// inserts suggestions in their place.
func (s *Store) ReplaceFileSuggestions(project, relPath string, suggestions []*Suggestion) error {
	if err := s.DeleteFileSuggestions(project, relPath); err != nil {
		return err
	}
	for _, sg := range suggestions {
		res, err := s.q.Exec(`
			INSERT INTO suggestions (project, rel_path, start_byte, end_byte, line, col, severity, code, message,
				old_text, new_text, applicability, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(project, rel_path, start_byte, end_byte, code) DO UPDATE SET
				message=excluded.message, new_text=excluded.new_text, notes=excluded.notes`,
			project, relPath, sg.StartByte, sg.EndByte, sg.Line, sg.Col, sg.Severity, sg.Code, sg.Message,
			sg.OldText, sg.NewText, sg.Applicability, marshalNotes(sg.Notes))
		if err != nil {
			return fmt.Errorf("insert suggestion %s:%d: %w", relPath, sg.StartByte, err)
		}
		if id, err := res.LastInsertId(); err == nil {
			sg.ID = id
		}
		sg.Project, sg.RelPath = project, relPath
	}
	return nil
}

// DeleteFileSuggestions removes the suggestions of one file.
func (s *Store) DeleteFileSuggestions(project, relPath string) error {
	_, err := s.q.Exec("DELETE FROM suggestions WHERE project=? AND rel_path=?", project, relPath)
	return err
}

// DeleteSuggestion removes a single suggestion.
func (s *Store) DeleteSuggestion(id int64) error {
	_, err := s.q.Exec("DELETE FROM suggestions WHERE id=?", id)
	return err
}

// GetSuggestion returns a suggestion by id.
func (s *Store) GetSuggestion(id int64) (*Suggestion, error) {
	row := s.q.QueryRow("SELECT "+suggestionColumns+" FROM suggestions WHERE id=?", id)
	sg, err := scanSuggestion(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("suggestion %d: %w", id, ErrNotFound)
	}
	return sg, err
}

// ListSuggestions returns the suggestions of project ordered by file and
// position.
func (s *Store) ListSuggestions(project string, f SuggestionFilter) ([]*Suggestion, error) {
	var where strings.Builder
	where.WriteString("project=?")
	args := []any{project}
	if f.RelPath != "" {
		where.WriteString(" AND rel_path=?")
		args = append(args, f.RelPath)
	}
	if f.Code != "" {
		where.WriteString(" AND code=?")
		args = append(args, f.Code)
	}
	if f.Applicability != "" {
		where.WriteString(" AND applicability=?")
		args = append(args, f.Applicability)
	}
	query := "SELECT " + suggestionColumns + " FROM suggestions WHERE " + where.String() +
		" ORDER BY rel_path, start_byte"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()
	var result []*Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, sg)
	}
	return result, rows.Err()
}

// CountSuggestions returns the number of suggestions per code for project.
func (s *Store) CountSuggestions(project string) (map[string]int, error) {
	rows, err := s.q.Query("SELECT code, COUNT(*) FROM suggestions WHERE project=? GROUP BY code", project)
	if err != nil {
		return nil, fmt.Errorf("count suggestions: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var code string
		var n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, err
		}
		counts[code] = n
	}
	return counts, rows.Err()
}
