package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/warp/appraisal-engine/okr"
)

// =============================================================================
// OBJECTIVE TEMPLATES
// =============================================================================

// SaveObjectiveTemplate validates and upserts an objective template.
func (s *Store) SaveObjectiveTemplate(ctx context.Context, t *okr.ObjectiveTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to serialize objective template %s: %w", t.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO objective_templates (id, name, department_id, template_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			department_id = excluded.department_id,
			template_json = excluded.template_json,
			updated_at = excluded.updated_at
	`, t.ID, t.Name, nullString(string(t.DepartmentID)), string(data), now())
	if err != nil {
		return fmt.Errorf("failed to save objective template %s: %w", t.ID, err)
	}
	return nil
}

// ObjectiveTemplate retrieves an objective template by ID.
func (s *Store) ObjectiveTemplate(ctx context.Context, id string) (*okr.ObjectiveTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRowContext(ctx, `SELECT template_json FROM objective_templates WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("objective template %s: %w", id, okr.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeObjectiveTemplate(data)
}

// ListObjectiveTemplates returns every objective template ordered by id.
func (s *Store) ListObjectiveTemplates(ctx context.Context) ([]*okr.ObjectiveTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT template_json FROM objective_templates ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*okr.ObjectiveTemplate
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		t, err := decodeObjectiveTemplate(data)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func decodeObjectiveTemplate(data string) (*okr.ObjectiveTemplate, error) {
	var t okr.ObjectiveTemplate
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("failed to decode objective template: %w", err)
	}
	return &t, nil
}
