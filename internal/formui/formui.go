package formui

import (
	"context"
	"fmt"

	"github.com/joestump/joe-writer/internal/catalog"
	"github.com/joestump/joe-writer/internal/form"
	"github.com/joestump/joe-writer/internal/llm"
)

// ChooseTemplate asks which template to use.
func ChooseTemplate(ctx context.Context, d Driver, cat *catalog.Catalog) (catalog.UseCaseTemplate, error) {
	titles := cat.Titles()
	if len(titles) == 0 {
		return catalog.UseCaseTemplate{}, fmt.Errorf("catalog is empty")
	}
	title, err := d.Select(ctx, Prompt{Message: "Template:"}, titles)
	if err != nil {
		return catalog.UseCaseTemplate{}, err
	}
	t, ok := cat.Find(title)
	if !ok {
		return catalog.UseCaseTemplate{}, fmt.Errorf("unknown template %q", title)
	}
	return t, nil
}

// Fill asks for every field of t that preset does not already supply, using
// the control each field declares. Values come back in field order, preset
// values first.
func Fill(ctx context.Context, d Driver, t catalog.UseCaseTemplate, preset form.Data) (form.Data, error) {
	var st form.State
	for _, e := range preset.Entries() {
		st.Set(e.Name, e.Value)
	}

	for _, f := range t.Fields {
		if _, ok := preset.Get(f.Name); ok {
			continue
		}
		p := Prompt{Message: f.Label + ":", Help: f.Placeholder, Required: f.Required}

		var (
			val string
			err error
		)
		switch c := f.Control.(type) {
		case catalog.Select:
			val, err = d.Select(ctx, p, c.Options)
		case catalog.Textarea:
			val, err = d.TextArea(ctx, p)
		default:
			val, err = d.Input(ctx, p)
		}
		if err != nil {
			return form.Data{}, fmt.Errorf("field %q: %w", f.Name, err)
		}
		st.Set(f.Name, val)
	}
	return st.Snapshot(), nil
}

// Settings asks for the output language and tone, offering current values
// as defaults.
func Settings(ctx context.Context, d Driver, language, tone string) (string, string, error) {
	if language == "" {
		language = llm.DefaultLanguage
	}
	if tone == "" {
		tone = llm.DefaultTone
	}
	lang, err := d.Select(ctx, Prompt{Message: "Language:", Default: language}, llm.Languages)
	if err != nil {
		return "", "", err
	}
	tn, err := d.Select(ctx, Prompt{Message: "Tone:", Default: tone}, llm.Tones)
	if err != nil {
		return "", "", err
	}
	return lang, tn, nil
}
