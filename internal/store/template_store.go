package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/joestump/joe-writer/internal/catalog"
)

type templateRow struct {
	ID       string `db:"id"`
	Title    string `db:"title"`
	Prompt   string `db:"prompt"`
	Position int    `db:"position"`
}

type fieldRow struct {
	TemplateID  string         `db:"template_id"`
	Position    int            `db:"position"`
	Label       string         `db:"label"`
	Name        string         `db:"name"`
	Kind        string         `db:"kind"`
	Placeholder string         `db:"placeholder"`
	Required    bool           `db:"required"`
	Options     sql.NullString `db:"options"`
}

// TemplateStore persists the use-case template catalog.
type TemplateStore struct {
	db *sqlx.DB
}

func NewTemplateStore(db *sqlx.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// List returns every template with its fields, in catalog order.
func (s *TemplateStore) List(ctx context.Context) ([]catalog.UseCaseTemplate, error) {
	var rows []templateRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, title, prompt, position FROM use_case_templates ORDER BY position, title
	`); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	var fields []fieldRow
	if err := s.db.SelectContext(ctx, &fields, `
		SELECT template_id, position, label, name, kind, placeholder, required, options
		FROM template_fields ORDER BY template_id, position
	`); err != nil {
		return nil, fmt.Errorf("list template fields: %w", err)
	}

	byTemplate := make(map[string][]catalog.FormField, len(rows))
	for _, f := range fields {
		ff, err := f.formField()
		if err != nil {
			return nil, err
		}
		byTemplate[f.TemplateID] = append(byTemplate[f.TemplateID], ff)
	}

	out := make([]catalog.UseCaseTemplate, 0, len(rows))
	for _, r := range rows {
		out = append(out, catalog.UseCaseTemplate{
			Title:  r.Title,
			Prompt: r.Prompt,
			Fields: byTemplate[r.ID],
		})
	}
	return out, nil
}

// Get returns the template with the given title, or ErrNotFound.
func (s *TemplateStore) Get(ctx context.Context, title string) (*catalog.UseCaseTemplate, error) {
	var r templateRow
	err := s.db.GetContext(ctx, &r, s.db.Rebind(`
		SELECT id, title, prompt, position FROM use_case_templates WHERE title = ?
	`), title)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var fields []fieldRow
	if err := s.db.SelectContext(ctx, &fields, s.db.Rebind(`
		SELECT template_id, position, label, name, kind, placeholder, required, options
		FROM template_fields WHERE template_id = ? ORDER BY position
	`), r.ID); err != nil {
		return nil, err
	}

	t := &catalog.UseCaseTemplate{Title: r.Title, Prompt: r.Prompt}
	for _, f := range fields {
		ff, err := f.formField()
		if err != nil {
			return nil, err
		}
		t.Fields = append(t.Fields, ff)
	}
	return t, nil
}

// Count returns the number of stored templates.
func (s *TemplateStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM use_case_templates`); err != nil {
		return 0, err
	}
	return n, nil
}

// ReplaceAll swaps the stored catalog for templates in one transaction.
// Templates are validated as a catalog first.
func (s *TemplateStore) ReplaceAll(ctx context.Context, templates []catalog.UseCaseTemplate) error {
	if _, err := catalog.New(templates); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM template_fields`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM use_case_templates`); err != nil {
		return err
	}

	for i, t := range templates {
		if err := insertTemplate(ctx, tx, i, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Add appends one template after the existing ones.
func (s *TemplateStore) Add(ctx context.Context, t catalog.UseCaseTemplate) error {
	if _, err := catalog.New([]catalog.UseCaseTemplate{t}); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var next int
	if err := tx.GetContext(ctx, &next, `SELECT COALESCE(MAX(position), -1) + 1 FROM use_case_templates`); err != nil {
		return err
	}
	if err := insertTemplate(ctx, tx, next, t); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the template with the given title, or returns ErrNotFound.
func (s *TemplateStore) Delete(ctx context.Context, title string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var id string
	err = tx.GetContext(ctx, &id, tx.Rebind(`SELECT id FROM use_case_templates WHERE title = ?`), title)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM template_fields WHERE template_id = ?`), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM use_case_templates WHERE id = ?`), id); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTemplate(ctx context.Context, tx *sqlx.Tx, position int, t catalog.UseCaseTemplate) error {
	id := uuid.New().String()
	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO use_case_templates (id, title, prompt, position) VALUES (?, ?, ?, ?)
	`), id, t.Title, t.Prompt, position)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %q", ErrTitleTaken, t.Title)
		}
		return err
	}

	for i, f := range t.Fields {
		var options sql.NullString
		if opts := f.Options(); opts != nil {
			b, err := json.Marshal(opts)
			if err != nil {
				return fmt.Errorf("encode options: %w", err)
			}
			options = sql.NullString{String: string(b), Valid: true}
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO template_fields (id, template_id, position, label, name, kind, placeholder, required, options)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`), uuid.New().String(), id, i, f.Label, f.Name, string(f.Control.Kind()), f.Placeholder, f.Required, options)
		if err != nil {
			return err
		}
	}
	return nil
}

func (f fieldRow) formField() (catalog.FormField, error) {
	var options []string
	if f.Options.Valid && f.Options.String != "" {
		if err := json.Unmarshal([]byte(f.Options.String), &options); err != nil {
			return catalog.FormField{}, fmt.Errorf("decode options for field %q: %w", f.Name, err)
		}
	}
	ctl, err := catalog.ParseControl(f.Kind, options)
	if err != nil {
		return catalog.FormField{}, fmt.Errorf("field %q: %w", f.Name, err)
	}
	return catalog.FormField{
		Label:       f.Label,
		Name:        f.Name,
		Placeholder: f.Placeholder,
		Required:    f.Required,
		Control:     ctl,
	}, nil
}

// LoadCatalog reads the stored templates into a validated catalog.
func (s *TemplateStore) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	templates, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.New(templates)
}
