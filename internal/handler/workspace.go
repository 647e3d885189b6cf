package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/joestump/joe-writer/internal/catalog"
	"github.com/joestump/joe-writer/internal/clipboard"
	"github.com/joestump/joe-writer/internal/llm"
	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/workspace"
)

// workspaceKey is the scs session key holding the browser's workspace ID.
const workspaceKey = "workspace_id"

// WorkspacePage is the template data for the workspace page and its fragments.
type WorkspacePage struct {
	BasePage
	Templates []catalog.UseCaseTemplate
	Query     string
	View      workspace.View
	Languages []string
	Tones     []string
}

// WorkspaceHandler drives a browser's workspace session.
type WorkspaceHandler struct {
	sessions *scs.SessionManager
	registry *workspace.Registry
}

// NewWorkspaceHandler creates a new WorkspaceHandler.
func NewWorkspaceHandler(sm *scs.SessionManager, reg *workspace.Registry) *WorkspaceHandler {
	return &WorkspaceHandler{sessions: sm, registry: reg}
}

// session returns the caller's workspace, creating one and remembering its
// ID in the browser session when needed.
func (h *WorkspaceHandler) session(r *http.Request) *workspace.Session {
	id := h.sessions.GetString(r.Context(), workspaceKey)
	s := h.registry.GetOrCreate(id)
	if s.ID != id {
		h.sessions.Put(r.Context(), workspaceKey, s.ID)
	}
	return s
}

// send applies msgs in order and returns the final view. A workspace that
// expired between lookup and send is replaced once.
func (h *WorkspaceHandler) send(r *http.Request, msgs ...workspace.Message) (workspace.View, error) {
	ctx := r.Context()
	v, err := sendAll(ctx, h.session(r), msgs)
	if errors.Is(err, workspace.ErrClosed) {
		h.sessions.Remove(ctx, workspaceKey)
		v, err = sendAll(ctx, h.session(r), msgs)
	}
	return v, err
}

func sendAll(ctx context.Context, s *workspace.Session, msgs []workspace.Message) (workspace.View, error) {
	if len(msgs) == 0 {
		return s.View(ctx)
	}
	var v workspace.View
	for _, m := range msgs {
		var err error
		if v, err = s.Send(ctx, m); err != nil {
			return workspace.View{}, err
		}
	}
	return v, nil
}

func (h *WorkspaceHandler) page(r *http.Request, v workspace.View) WorkspacePage {
	q := r.URL.Query().Get("q")
	var templates []catalog.UseCaseTemplate
	if cat := h.registry.Catalog(); cat != nil {
		templates = cat.Search(q)
	}
	return WorkspacePage{
		BasePage:  basePage(r, "workspace"),
		Templates: templates,
		Query:     q,
		View:      v,
		Languages: llm.Languages,
		Tones:     llm.Tones,
	}
}

func (h *WorkspaceHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	logger.Error(r.Context(), "handler: workspace message failed", err)
	http.Error(w, "workspace unavailable", http.StatusServiceUnavailable)
}

// respond renders fragment for HTMX requests and redirects everything else
// back to the workspace page.
func (h *WorkspaceHandler) respond(w http.ResponseWriter, r *http.Request, fragment string, v workspace.View) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderFragment(w, fragment, h.page(r, v))
}

// Index renders the workspace page.
// GET /
func (h *WorkspaceHandler) Index(w http.ResponseWriter, r *http.Request) {
	v, err := h.send(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render(w, "index.html", h.page(r, v))
}

// Templates renders the template list filtered by ?q=.
// GET /workspace/templates
func (h *WorkspaceHandler) Templates(w http.ResponseWriter, r *http.Request) {
	v, err := h.send(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderFragment(w, "template_list", h.page(r, v))
}

// SelectTemplate switches the active template and clears the form.
// POST /workspace/template
func (h *WorkspaceHandler) SelectTemplate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	title := r.FormValue("title")
	if cat := h.registry.Catalog(); cat != nil {
		if _, ok := cat.Find(title); !ok {
			http.Error(w, "unknown template", http.StatusNotFound)
			return
		}
	}
	v, err := h.send(r, workspace.SelectTemplate{Title: title})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, "editor", v)
}

// fieldMessages turns posted values for the selected template's fields into
// SetField messages, in field order. Unknown names are ignored. HTMX posts
// the whole form, so an empty value only counts for a field already recorded;
// untouched fields keep their {name} placeholder in the prompt.
func fieldMessages(r *http.Request, v workspace.View) []workspace.Message {
	if v.Template == nil {
		return nil
	}
	var msgs []workspace.Message
	for _, f := range v.Template.Fields {
		vals, ok := r.PostForm[f.Name]
		if !ok || len(vals) == 0 {
			continue
		}
		if _, recorded := v.Form.Get(f.Name); vals[0] == "" && !recorded {
			continue
		}
		msgs = append(msgs, workspace.SetField{Name: f.Name, Value: vals[0]})
	}
	return msgs
}

// settingsMessages returns messages for posted language and tone values.
func settingsMessages(r *http.Request) []workspace.Message {
	var msgs []workspace.Message
	if lang := strings.TrimSpace(r.PostFormValue("language")); lang != "" {
		msgs = append(msgs, workspace.SetLanguage{Language: lang})
	}
	if tone := strings.TrimSpace(r.PostFormValue("tone")); tone != "" {
		msgs = append(msgs, workspace.SetTone{Tone: tone})
	}
	return msgs
}

// Fields records form values and returns the interpolated prompt preview.
// POST /workspace/fields
func (h *WorkspaceHandler) Fields(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	cur, err := h.send(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.send(r, fieldMessages(r, cur)...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, "prompt_preview", v)
}

// Settings records the output language and tone.
// POST /workspace/settings
func (h *WorkspaceHandler) Settings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if _, err := h.send(r, settingsMessages(r)...); err != nil {
		h.fail(w, r, err)
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Generate records any posted values then starts a generation. The response
// polls /workspace/result until it settles.
// POST /workspace/generate
func (h *WorkspaceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	cur, err := h.send(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if cur.Template == nil {
		http.Error(w, "select a template first", http.StatusBadRequest)
		return
	}
	msgs := append(fieldMessages(r, cur), settingsMessages(r)...)
	msgs = append(msgs, workspace.Generate{})
	v, err := h.send(r, msgs...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, "result", v)
}

// Result renders the result panel.
// GET /workspace/result
func (h *WorkspaceHandler) Result(w http.ResponseWriter, r *http.Request) {
	v, err := h.send(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderFragment(w, "result", h.page(r, v))
}

// UpdateResult replaces the result with the user's edit.
// PUT /workspace/result
func (h *WorkspaceHandler) UpdateResult(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	v, err := h.send(r, workspace.EditResult{Content: r.PostFormValue("content")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, "result", v)
}

// ResultText returns the result exactly as stored, for the browser clipboard.
// GET /workspace/result.txt
func (h *WorkspaceHandler) ResultText(w http.ResponseWriter, r *http.Request) {
	var text string
	sink := clipboard.Func(func(s string) error {
		text = s
		return nil
	})
	err := h.session(r).Copy(r.Context(), sink)
	if errors.Is(err, workspace.ErrClosed) {
		h.sessions.Remove(r.Context(), workspaceKey)
		err = h.session(r).Copy(r.Context(), sink)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(text))
}
