package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joestump/joe-writer/internal/catalog"
	"github.com/joestump/joe-writer/internal/client"
	"github.com/joestump/joe-writer/internal/clipboard"
)

const testCatalog = `
templates:
  - title: Blog Post
    prompt: "Write about {topic} titled {topic} in {style}"
    form:
      - {label: Topic, field: input, name: topic, required: true}
      - {label: Style, field: select, name: style, options: [short, long]}
  - title: Email
    prompt: "Email {recipient}"
    form:
      - {label: Recipient, field: input, name: recipient}
`

// fakeGenerator records requests and lets the test decide when and how each
// completes.
type fakeGenerator struct {
	mu       sync.Mutex
	seq      uint64
	requests []client.GenerationRequest
	deliver  []func(client.Outcome)
	started  chan struct{}
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{started: make(chan struct{}, 8)}
}

func (g *fakeGenerator) Generate(_ context.Context, req client.GenerationRequest, deliver func(client.Outcome)) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.requests = append(g.requests, req)
	g.deliver = append(g.deliver, deliver)
	g.started <- struct{}{}
	return g.seq
}

func (g *fakeGenerator) complete(seq uint64, content string, err error) {
	g.mu.Lock()
	deliver := g.deliver[seq-1]
	g.mu.Unlock()
	deliver(client.Outcome{Seq: seq, Result: client.GenerationResult{Content: content}, Err: err})
}

func (g *fakeGenerator) request(i int) client.GenerationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[i]
}

func newTestSession(t *testing.T) (*Session, *fakeGenerator) {
	t.Helper()
	cat, err := catalog.Load(strings.NewReader(testCatalog))
	if err != nil {
		t.Fatalf("Load catalog: %v", err)
	}
	gen := newFakeGenerator()
	s := NewSession("test", cat, gen)
	t.Cleanup(s.Close)
	return s, gen
}

func send(t *testing.T, s *Session, msgs ...Message) View {
	t.Helper()
	var v View
	for _, m := range msgs {
		var err error
		v, err = s.Send(context.Background(), m)
		if err != nil {
			t.Fatalf("Send(%T): %v", m, err)
		}
	}
	return v
}

// waitFor polls the view until cond holds.
func waitFor(t *testing.T, s *Session, cond func(View) bool) View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v, err := s.View(context.Background())
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		if cond(v) {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
	return View{}
}

func TestSelectTemplateResetsForm(t *testing.T) {
	s, _ := newTestSession(t)

	v := send(t, s, SelectTemplate{Title: "Blog Post"}, SetField{Name: "topic", Value: "cats"})
	if v.Form.Len() != 1 {
		t.Fatalf("form has %d values, want 1", v.Form.Len())
	}

	for _, title := range []string{"Email", "Blog Post", "Nope"} {
		v = send(t, s, SelectTemplate{Title: title})
		if v.Form.Len() != 0 {
			t.Errorf("after selecting %q form has %d values, want 0", title, v.Form.Len())
		}
		send(t, s, SetField{Name: "x", Value: "y"})
	}
	if v.Template != nil {
		t.Errorf("unknown title left template %q selected", v.Template.Title)
	}
}

func TestGenerateSuccess(t *testing.T) {
	s, gen := newTestSession(t)

	v := send(t, s,
		SelectTemplate{Title: "Blog Post"},
		SetField{Name: "topic", Value: "cats"},
		SetField{Name: "style", Value: "short"},
		SetLanguage{Language: "French"},
		Generate{},
	)
	if !v.Loading() {
		t.Fatalf("phase = %v after Generate, want loading", v.Phase)
	}
	<-gen.started

	want := client.GenerationRequest{
		Message:  "Write about cats titled {topic} in short",
		Language: "French",
		Tone:     "Convincing",
	}
	if diff := cmp.Diff(want, gen.request(0)); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}

	gen.complete(1, "Hello world", nil)
	v = waitFor(t, s, func(v View) bool { return v.Phase == client.PhaseSuccess })
	if v.Result != "Hello world" {
		t.Errorf("Result = %q, want %q", v.Result, "Hello world")
	}
}

func TestGenerateFailureKeepsResult(t *testing.T) {
	s, gen := newTestSession(t)

	send(t, s, SelectTemplate{Title: "Email"}, EditResult{Content: "previous"}, Generate{})
	<-gen.started
	gen.complete(1, "", &client.Error{Kind: client.KindRequestFailed, Status: 500})

	v := waitFor(t, s, func(v View) bool { return v.Phase == client.PhaseError })
	if !errors.Is(v.Err, client.ErrRequestFailed) {
		t.Errorf("Err = %v, want RequestFailed", v.Err)
	}
	if v.Result != "previous" {
		t.Errorf("Result = %q, want previous", v.Result)
	}
	if v.ErrorMessage() != "Failed to generate content" {
		t.Errorf("ErrorMessage() = %q", v.ErrorMessage())
	}

	v = send(t, s, Generate{})
	if v.Err != nil || !v.Loading() {
		t.Errorf("new Generate did not clear error: phase %v err %v", v.Phase, v.Err)
	}
}

func TestGenerateIgnoresSupersededOutcome(t *testing.T) {
	s, gen := newTestSession(t)

	send(t, s, SelectTemplate{Title: "Email"}, Generate{}, Generate{})
	<-gen.started
	<-gen.started

	gen.complete(2, "newest", nil)
	waitFor(t, s, func(v View) bool { return v.Phase == client.PhaseSuccess })
	gen.complete(1, "stale", nil)

	v := send(t, s, snapshot{})
	if v.Result != "newest" {
		t.Errorf("Result = %q, want newest", v.Result)
	}
}

func TestGenerateWithoutTemplate(t *testing.T) {
	s, gen := newTestSession(t)
	send(t, s, Generate{})
	<-gen.started
	if got := gen.request(0).Message; got != "" {
		t.Errorf("Message = %q, want empty", got)
	}
}

func TestViewPromptAndMissing(t *testing.T) {
	s, _ := newTestSession(t)
	v := send(t, s, SelectTemplate{Title: "Blog Post"}, SetField{Name: "style", Value: "long"})

	if v.Prompt != "Write about {topic} titled {topic} in long" {
		t.Errorf("Prompt = %q", v.Prompt)
	}
	if diff := cmp.Diff([]string{"topic"}, v.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
	if v.Value("style") != "long" {
		t.Errorf("Value(style) = %q, want long", v.Value("style"))
	}
}

func TestCopy(t *testing.T) {
	s, _ := newTestSession(t)
	send(t, s, EditResult{Content: "abc"})

	var got string
	if err := s.Copy(context.Background(), clipboard.Func(func(text string) error {
		got = text
		return nil
	})); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if got != "abc" {
		t.Errorf("clipboard got %q, want abc", got)
	}
}

func TestSendAfterClose(t *testing.T) {
	s, _ := newTestSession(t)
	s.Close()
	if _, err := s.Send(context.Background(), snapshot{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close error = %v, want ErrClosed", err)
	}
}

func TestRegistrySweep(t *testing.T) {
	cat, err := catalog.Load(strings.NewReader(testCatalog))
	if err != nil {
		t.Fatalf("Load catalog: %v", err)
	}
	var ids []string
	r := NewRegistry(cat, func(id string) Generator {
		ids = append(ids, id)
		return newFakeGenerator()
	}, time.Minute)

	a := r.GetOrCreate("")
	if len(ids) != 1 || ids[0] != a.ID {
		t.Errorf("generator created for %v, want [%s]", ids, a.ID)
	}
	if got := r.GetOrCreate(a.ID); got != a {
		t.Error("GetOrCreate(existing) returned a different session")
	}
	if got := r.GetOrCreate("unknown"); got == a || got.ID == "unknown" {
		t.Error("GetOrCreate(unknown) did not create a fresh session")
	}
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	if n := r.Sweep(time.Now()); n != 0 {
		t.Errorf("Sweep(now) removed %d, want 0", n)
	}
	if n := r.Sweep(time.Now().Add(2 * time.Minute)); n != 2 {
		t.Errorf("Sweep(later) removed %d, want 2", n)
	}
	if _, ok := r.Get(a.ID); ok {
		t.Error("swept session still registered")
	}
	if _, err := a.View(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("swept session View error = %v, want ErrClosed", err)
	}
}
