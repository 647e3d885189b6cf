package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultCatalog []byte

// file is the on-disk layout of a catalog document.
type file struct {
	Templates []TemplateDoc `yaml:"templates"`
}

// TemplateDoc is the serialized form of a template, shared by catalog files
// and the templates API.
type TemplateDoc struct {
	Title  string     `yaml:"title" json:"title"`
	Prompt string     `yaml:"prompt" json:"prompt"`
	Form   []FieldDoc `yaml:"form" json:"form"`
}

// FieldDoc is the serialized form of a field. Field holds the control kind.
type FieldDoc struct {
	Label       string   `yaml:"label" json:"label"`
	Field       string   `yaml:"field" json:"field"`
	Name        string   `yaml:"name" json:"name"`
	Placeholder string   `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Required    bool     `yaml:"required,omitempty" json:"required"`
	Options     []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML catalog document and validates it.
func Load(r io.Reader) (*Catalog, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	return FromDocs(doc.Templates)
}

// FromDocs converts serialized templates into a validated catalog.
func FromDocs(docs []TemplateDoc) (*Catalog, error) {
	templates := make([]UseCaseTemplate, 0, len(docs))
	for _, td := range docs {
		t, err := td.template()
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return New(templates)
}

// Docs converts templates to their serialized form.
func Docs(templates []UseCaseTemplate) []TemplateDoc {
	docs := make([]TemplateDoc, 0, len(templates))
	for _, t := range templates {
		td := TemplateDoc{Title: t.Title, Prompt: t.Prompt}
		for _, f := range t.Fields {
			td.Form = append(td.Form, FieldDoc{
				Label:       f.Label,
				Field:       string(f.Control.Kind()),
				Name:        f.Name,
				Placeholder: f.Placeholder,
				Required:    f.Required,
				Options:     f.Options(),
			})
		}
		docs = append(docs, td)
	}
	return docs
}

func (td TemplateDoc) template() (UseCaseTemplate, error) {
	t := UseCaseTemplate{Title: td.Title, Prompt: td.Prompt}
	for _, fd := range td.Form {
		ctl, err := ParseControl(fd.Field, fd.Options)
		if err != nil {
			return UseCaseTemplate{}, fmt.Errorf("template %q field %q: %w", td.Title, fd.Name, err)
		}
		t.Fields = append(t.Fields, FormField{
			Label:       fd.Label,
			Name:        fd.Name,
			Placeholder: fd.Placeholder,
			Required:    fd.Required,
			Control:     ctl,
		})
	}
	return t, nil
}

// ParseControl builds a Control from its kind name. Options are only
// accepted for select controls.
func ParseControl(kind string, options []string) (Control, error) {
	switch Kind(kind) {
	case KindInput, "":
		if len(options) > 0 {
			return nil, fmt.Errorf("%w: options on %s field", ErrInvalidControl, KindInput)
		}
		return Input{}, nil
	case KindTextarea:
		if len(options) > 0 {
			return nil, fmt.Errorf("%w: options on %s field", ErrInvalidControl, KindTextarea)
		}
		return Textarea{}, nil
	case KindSelect:
		return Select{Options: append([]string(nil), options...)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidControl, kind)
	}
}

// Marshal encodes templates in the same YAML layout Load accepts.
func Marshal(w io.Writer, templates []UseCaseTemplate) error {
	doc := file{Templates: Docs(templates)}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}
