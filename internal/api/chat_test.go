package api_test

import (
	"bufio"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joestump/joe-writer/internal/llm"
)

// sseData returns the data field of each event in body.
func sseData(t *testing.T, body string) []string {
	t.Helper()
	var out []string
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "data:") {
			out = append(out, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	return out
}

func TestChatStreamsFragmentsInOrder(t *testing.T) {
	p := &fakeProvider{deltas: []string{"Hel", "lo", " world"}, errAfter: -1}
	router := newTestRouter(t, p, nil)

	rr := postJSON(router, "/chat", `{"messages":[{"role":"user","content":"hi"}],"systemMsg":"be brief"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	want := []string{`{"text":"Hel"}`, `{"text":"lo"}`, `{"text":" world"}`, `[DONE]`}
	if diff := cmp.Diff(want, sseData(t, rr.Body.String())); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	wantMsgs := []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "hi"},
	}
	if diff := cmp.Diff(wantMsgs, p.messages()); diff != "" {
		t.Errorf("provider messages mismatch (-want +got):\n%s", diff)
	}
}

func TestChatDefaultSystemPrompt(t *testing.T) {
	p := &fakeProvider{deltas: []string{"ok"}, errAfter: -1}
	rr := postJSON(newTestRouter(t, p, nil), "/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rr.Code, rr.Body.String())
	}
	if got := p.messages()[0]; got.Role != llm.RoleSystem || got.Content != "default system" {
		t.Errorf("first message = %+v, want default system prompt", got)
	}
}

func TestChatErrorMidStream(t *testing.T) {
	p := &fakeProvider{deltas: []string{"Hel", "lo"}, err: errUpstream, errAfter: 1}
	rr := postJSON(newTestRouter(t, p, nil), "/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rr.Code, rr.Body.String())
	}
	want := []string{`{"text":"Hel"}`, `{"error":"stream interrupted"}`}
	if diff := cmp.Diff(want, sseData(t, rr.Body.String())); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
		body     string
		want     int
	}{
		{"invalid json", &fakeProvider{}, `nope`, http.StatusBadRequest},
		{"no messages", &fakeProvider{}, `{"messages":[]}`, http.StatusBadRequest},
		{"bad role", &fakeProvider{}, `{"messages":[{"role":"robot","content":"hi"}]}`, http.StatusBadRequest},
		{"not configured", nil, `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusServiceUnavailable},
		{"fails before output", &fakeProvider{err: errUpstream, errAfter: 0}, `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(newTestRouter(t, tt.provider, nil), "/chat", tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d; body: %s", rr.Code, tt.want, rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}
