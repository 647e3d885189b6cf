package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joestump/joe-writer/internal/catalog"
	"github.com/joestump/joe-writer/internal/testutil"
)

var sampleTemplates = []catalog.UseCaseTemplate{
	{
		Title:  "Blog Post",
		Prompt: "Write about {topic} for {audience}",
		Fields: []catalog.FormField{
			{Label: "Topic", Name: "topic", Placeholder: "e.g. cats", Required: true, Control: catalog.Input{}},
			{Label: "Audience", Name: "audience", Control: catalog.Select{Options: []string{"kids", "adults"}}},
		},
	},
	{
		Title:  "Summary",
		Prompt: "Summarize {text}",
		Fields: []catalog.FormField{
			{Label: "Text", Name: "text", Control: catalog.Textarea{}},
		},
	},
}

func TestTemplateStoreReplaceAllAndList(t *testing.T) {
	s := NewTemplateStore(testutil.NewTestDB(t))
	ctx := context.Background()

	if err := s.ReplaceAll(ctx, sampleTemplates); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff(sampleTemplates, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}

	if err := s.ReplaceAll(ctx, sampleTemplates[1:]); err != nil {
		t.Fatalf("second ReplaceAll: %v", err)
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d after replace, want 1", n)
	}
}

func TestTemplateStoreGet(t *testing.T) {
	s := NewTemplateStore(testutil.NewTestDB(t))
	ctx := context.Background()
	if err := s.ReplaceAll(ctx, sampleTemplates); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := s.Get(ctx, "Blog Post")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(sampleTemplates[0], *got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.Get(ctx, "Missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(Missing) error = %v, want ErrNotFound", err)
	}
}

func TestTemplateStoreAddAndDelete(t *testing.T) {
	s := NewTemplateStore(testutil.NewTestDB(t))
	ctx := context.Background()

	for _, tmpl := range sampleTemplates {
		if err := s.Add(ctx, tmpl); err != nil {
			t.Fatalf("Add(%s): %v", tmpl.Title, err)
		}
	}
	if err := s.Add(ctx, sampleTemplates[0]); !errors.Is(err, ErrTitleTaken) {
		t.Errorf("Add(duplicate) error = %v, want ErrTitleTaken", err)
	}

	cat, err := s.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if diff := cmp.Diff([]string{"Blog Post", "Summary"}, cat.Titles()); diff != "" {
		t.Errorf("catalog order mismatch (-want +got):\n%s", diff)
	}

	if err := s.Delete(ctx, "Blog Post"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "Blog Post"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Summary" {
		t.Errorf("List() after delete = %v", got)
	}
}

func TestTemplateStoreRejectsInvalidCatalog(t *testing.T) {
	s := NewTemplateStore(testutil.NewTestDB(t))
	dup := []catalog.UseCaseTemplate{sampleTemplates[0], sampleTemplates[0]}
	if err := s.ReplaceAll(context.Background(), dup); !errors.Is(err, catalog.ErrDuplicateTitle) {
		t.Errorf("ReplaceAll(dup) error = %v, want ErrDuplicateTitle", err)
	}
}
