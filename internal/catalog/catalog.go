// Package catalog holds the registry of use-case templates. A Catalog is
// immutable once built and safe for concurrent use.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

var (
	ErrDuplicateTitle = errors.New("duplicate template title")
	ErrDuplicateField = errors.New("duplicate field name")
	ErrInvalidControl = errors.New("invalid field control")
	ErrEmptyTitle     = errors.New("template title is required")
	ErrEmptyFieldName = errors.New("field name is required")
)

// Catalog is an ordered, read-only set of templates keyed by title.
type Catalog struct {
	templates []UseCaseTemplate
	byTitle   map[string]int
}

// New validates templates and builds a Catalog preserving their order.
func New(templates []UseCaseTemplate) (*Catalog, error) {
	c := &Catalog{
		templates: make([]UseCaseTemplate, 0, len(templates)),
		byTitle:   make(map[string]int, len(templates)),
	}
	for _, t := range templates {
		if err := validate(t); err != nil {
			return nil, err
		}
		if _, dup := c.byTitle[t.Title]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTitle, t.Title)
		}
		c.byTitle[t.Title] = len(c.templates)
		c.templates = append(c.templates, t.clone())
	}
	return c, nil
}

func validate(t UseCaseTemplate) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if err := ValidateFieldName(f.Name); err != nil {
			return fmt.Errorf("template %q: %w", t.Title, err)
		}
		if seen[f.Name] {
			return fmt.Errorf("template %q: %w: %q", t.Title, ErrDuplicateField, f.Name)
		}
		seen[f.Name] = true

		switch c := f.Control.(type) {
		case Input, Textarea:
		case Select:
			if len(c.Options) == 0 {
				return fmt.Errorf("template %q field %q: %w: select has no options", t.Title, f.Name, ErrInvalidControl)
			}
		default:
			return fmt.Errorf("template %q field %q: %w", t.Title, f.Name, ErrInvalidControl)
		}
	}
	return nil
}

// Find returns the template with exactly the given title. The boolean is
// false when no template matches, which callers treat as "nothing selected".
func (c *Catalog) Find(title string) (UseCaseTemplate, bool) {
	i, ok := c.byTitle[title]
	if !ok {
		return UseCaseTemplate{}, false
	}
	return c.templates[i].clone(), true
}

// All returns every template in catalog order.
func (c *Catalog) All() []UseCaseTemplate {
	out := make([]UseCaseTemplate, len(c.templates))
	for i, t := range c.templates {
		out[i] = t.clone()
	}
	return out
}

// Titles returns the template titles in catalog order.
func (c *Catalog) Titles() []string {
	out := make([]string, len(c.templates))
	for i, t := range c.templates {
		out[i] = t.Title
	}
	return out
}

// Len reports the number of templates.
func (c *Catalog) Len() int { return len(c.templates) }

// Search fuzzy-matches query against titles and prompts, best match first.
// An empty query returns All.
func (c *Catalog) Search(query string) []UseCaseTemplate {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.All()
	}

	haystack := make([]string, len(c.templates))
	for i, t := range c.templates {
		haystack[i] = t.Title + " " + t.Prompt
	}

	matches := fuzzy.Find(query, haystack)
	out := make([]UseCaseTemplate, 0, len(matches))
	for _, m := range matches {
		out = append(out, c.templates[m.Index].clone())
	}
	return out
}
