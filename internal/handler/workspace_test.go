package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/joestump/joe-writer/internal/catalog"
	"github.com/joestump/joe-writer/internal/client"
	"github.com/joestump/joe-writer/internal/workspace"
)

const testCatalog = `
templates:
  - title: Blog Post
    prompt: "Write about {topic} in a {length} post"
    form:
      - {label: Topic, field: input, name: topic, required: true}
      - {label: Length, field: select, name: length, options: [short, long]}
  - title: Email
    prompt: "Email {recipient}"
    form:
      - {label: Recipient, field: textarea, name: recipient}
`

// echoGenerator completes every request asynchronously with the prompt it
// was given.
type echoGenerator struct {
	mu       sync.Mutex
	seq      uint64
	requests []client.GenerationRequest
}

func (g *echoGenerator) Generate(_ context.Context, req client.GenerationRequest, deliver func(client.Outcome)) uint64 {
	g.mu.Lock()
	g.seq++
	seq := g.seq
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	go deliver(client.Outcome{Seq: seq, Result: client.GenerationResult{Content: "# Draft\n\n" + req.Message}})
	return seq
}

func (g *echoGenerator) last() client.GenerationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

type workspaceTestEnv struct {
	srv *httptest.Server
	c   *http.Client
	gen *echoGenerator
	reg *workspace.Registry
}

func newWorkspaceTestEnv(t *testing.T) *workspaceTestEnv {
	t.Helper()
	cat, err := catalog.Load(strings.NewReader(testCatalog))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	gen := &echoGenerator{}
	reg := workspace.NewRegistry(cat, func(string) workspace.Generator { return gen }, time.Hour)

	router := NewRouter(Deps{
		SessionManager: scs.New(),
		Registry:       reg,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { reg.Sweep(time.Now().Add(2 * time.Hour)) })

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	c := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &workspaceTestEnv{srv: srv, c: c, gen: gen, reg: reg}
}

// do sends an HTMX request and returns the status and body.
func (e *workspaceTestEnv) do(t *testing.T, method, path string, form url.Values) (int, string) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("HX-Request", "true")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := e.c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

// awaitResult polls the result panel until generation settles.
func (e *workspaceTestEnv) awaitResult(t *testing.T) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, body := e.do(t, http.MethodGet, "/workspace/result", nil)
		if !strings.Contains(body, "Generating...") {
			return body
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("generation did not settle")
	return ""
}

func TestWorkspaceIndex(t *testing.T) {
	env := newWorkspaceTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	for _, want := range []string{"Blog Post", "Email", "Pick a template"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if env.reg.Len() != 1 {
		t.Errorf("registry has %d workspaces, want 1", env.reg.Len())
	}
}

func TestWorkspaceGenerateFlow(t *testing.T) {
	env := newWorkspaceTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/workspace/template", url.Values{"title": {"Blog Post"}})
	if status != http.StatusOK {
		t.Fatalf("select status = %d; body: %s", status, body)
	}
	if !strings.Contains(body, `name="topic"`) || !strings.Contains(body, `<option value="long"`) {
		t.Errorf("editor does not render template controls:\n%s", body)
	}

	_, body = env.do(t, http.MethodPost, "/workspace/fields", url.Values{"topic": {"cats"}})
	if !strings.Contains(body, "Write about cats in a {length} post") {
		t.Errorf("prompt preview = %s", body)
	}

	status, body = env.do(t, http.MethodPost, "/workspace/generate", url.Values{
		"length":   {"short"},
		"language": {"Spanish"},
		"tone":     {"Friendly"},
	})
	if status != http.StatusOK {
		t.Fatalf("generate status = %d; body: %s", status, body)
	}

	body = env.awaitResult(t)
	if !strings.Contains(body, "<h1>Draft</h1>") {
		t.Errorf("result does not render markdown:\n%s", body)
	}

	req := env.gen.last()
	want := client.GenerationRequest{Message: "Write about cats in a short post", Language: "Spanish", Tone: "Friendly"}
	if req != want {
		t.Errorf("request = %+v, want %+v", req, want)
	}

	_, text := env.do(t, http.MethodGet, "/workspace/result.txt", nil)
	if text != "# Draft\n\nWrite about cats in a short post" {
		t.Errorf("result.txt = %q", text)
	}

	status, _ = env.do(t, http.MethodPut, "/workspace/result", url.Values{"content": {"edited *by hand*"}})
	if status != http.StatusOK {
		t.Fatalf("edit status = %d", status)
	}
	_, text = env.do(t, http.MethodGet, "/workspace/result.txt", nil)
	if text != "edited *by hand*" {
		t.Errorf("result.txt after edit = %q", text)
	}
}

func TestWorkspaceUntouchedFieldsKeepPlaceholder(t *testing.T) {
	env := newWorkspaceTestEnv(t)
	env.do(t, http.MethodPost, "/workspace/template", url.Values{"title": {"Blog Post"}})

	steps := []struct {
		length string
		want   string
	}{
		{"", "Write about cats in a {length} post"},
		{"long", "Write about cats in a long post"},
		{"", "Write about cats in a  post"},
	}
	for _, step := range steps {
		_, body := env.do(t, http.MethodPost, "/workspace/fields", url.Values{
			"topic":  {"cats"},
			"length": {step.length},
		})
		if !strings.Contains(body, step.want) {
			t.Errorf("length=%q: prompt preview missing %q:\n%s", step.length, step.want, body)
		}
	}
}

func TestWorkspaceEmptyResult(t *testing.T) {
	env := newWorkspaceTestEnv(t)
	env.do(t, http.MethodPost, "/workspace/template", url.Values{"title": {"Email"}})

	_, body := env.do(t, http.MethodGet, "/workspace/result", nil)
	if !strings.Contains(body, "No Content Generated") {
		t.Errorf("empty result panel = %s", body)
	}
	_, text := env.do(t, http.MethodGet, "/workspace/result.txt", nil)
	if text != "" {
		t.Errorf("result.txt = %q, want empty", text)
	}
}

func TestWorkspaceErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		form   url.Values
		status int
	}{
		{"unknown template", "/workspace/template", url.Values{"title": {"Nope"}}, http.StatusNotFound},
		{"generate without template", "/workspace/generate", url.Values{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newWorkspaceTestEnv(t)
			if status, body := env.do(t, http.MethodPost, tt.path, tt.form); status != tt.status {
				t.Errorf("status = %d, want %d; body: %s", status, tt.status, body)
			}
		})
	}
}

func TestWorkspaceSearch(t *testing.T) {
	env := newWorkspaceTestEnv(t)

	_, body := env.do(t, http.MethodGet, "/workspace/templates?q=email", nil)
	if !strings.Contains(body, "Email") || strings.Contains(body, "Blog Post") {
		t.Errorf("search results = %s", body)
	}
}

func TestWorkspaceNonHTMXRedirects(t *testing.T) {
	env := newWorkspaceTestEnv(t)

	resp, err := env.c.PostForm(env.srv.URL+"/workspace/template", url.Values{"title": {"Email"}})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Errorf("status = %d location = %q, want 303 to /", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestWorkspaceExpiredSessionIsReplaced(t *testing.T) {
	env := newWorkspaceTestEnv(t)
	env.do(t, http.MethodPost, "/workspace/template", url.Values{"title": {"Email"}})

	env.reg.Sweep(time.Now().Add(2 * time.Hour))

	status, body := env.do(t, http.MethodGet, "/workspace/result", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d; body: %s", status, body)
	}
	if env.reg.Len() != 1 {
		t.Errorf("registry has %d workspaces, want 1", env.reg.Len())
	}
}

func TestHealth(t *testing.T) {
	env := newWorkspaceTestEnv(t)

	resp, err := env.c.Get(env.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var got healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "ok" || got.Templates != 2 {
		t.Errorf("health = %+v", got)
	}
}

func TestThemeToggle(t *testing.T) {
	env := newWorkspaceTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/theme", url.Values{"theme": {"joe-dark"}})
	if status != http.StatusOK {
		t.Errorf("status = %d, want %d", status, http.StatusOK)
	}
	status, _ = env.do(t, http.MethodPost, "/theme", url.Values{"theme": {"neon"}})
	if status != http.StatusBadRequest {
		t.Errorf("invalid theme status = %d, want %d", status, http.StatusBadRequest)
	}
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	got := string(renderMarkdown("**bold** <script>alert(1)</script>"))
	if !strings.Contains(got, "<strong>bold</strong>") {
		t.Errorf("markdown not rendered: %s", got)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("script not stripped: %s", got)
	}
}
