package workspace

import (
	"github.com/joestump/joe-writer/internal/client"
	"github.com/joestump/joe-writer/internal/clipboard"
	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/prompt"
)

// Message is a change request processed by a session loop.
type Message interface {
	apply(s *Session)
}

// SelectTemplate selects a template by title and clears the form. An unknown
// title leaves nothing selected.
type SelectTemplate struct{ Title string }

// SetField records one form value.
type SetField struct{ Name, Value string }

// SetLanguage sets the output language.
type SetLanguage struct{ Language string }

// SetTone sets the output tone.
type SetTone struct{ Tone string }

// Generate interpolates the selected prompt and starts a generation.
type Generate struct{}

// EditResult replaces the result with user-edited text.
type EditResult struct{ Content string }

type generationDone struct{ outcome client.Outcome }

type snapshot struct{}

type copyResult struct {
	w   clipboard.Writer
	err error
}

func (m SelectTemplate) apply(s *Session) {
	s.st.form.Reset()
	t, ok := s.catalog.Find(m.Title)
	if !ok {
		s.st.selected = nil
		return
	}
	s.st.selected = &t
}

func (m SetField) apply(s *Session) { s.st.form.Set(m.Name, m.Value) }

func (m SetLanguage) apply(s *Session) {
	if m.Language != "" {
		s.st.language = m.Language
	}
}

func (m SetTone) apply(s *Session) {
	if m.Tone != "" {
		s.st.tone = m.Tone
	}
}

func (Generate) apply(s *Session) {
	var tmpl string
	if s.st.selected != nil {
		tmpl = s.st.selected.Prompt
	}
	req := client.GenerationRequest{
		Message:  prompt.Interpolate(tmpl, s.st.form.Snapshot()),
		Language: s.st.language,
		Tone:     s.st.tone,
	}
	s.st.phase = client.PhaseLoading
	s.st.err = nil
	s.st.pending = s.gen.Generate(s.ctx, req, s.deliver)
}

func (m generationDone) apply(s *Session) {
	o := m.outcome
	if o.Seq != s.st.pending {
		logger.Debug(s.ctx, "ignoring superseded generation", "seq", o.Seq, "pending", s.st.pending)
		return
	}
	if o.Err != nil {
		s.st.phase = client.PhaseError
		s.st.err = o.Err
		logger.Error(s.ctx, "generation failed", o.Err, "seq", o.Seq)
		return
	}
	s.st.phase = client.PhaseSuccess
	s.st.result.Replace(o.Result.Content)
}

func (m EditResult) apply(s *Session) { s.st.result.Edit(m.Content) }

func (snapshot) apply(*Session) {}

func (m *copyResult) apply(s *Session) { m.err = s.st.result.Copy(m.w) }
