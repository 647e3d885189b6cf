package api_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joestump/joe-writer/internal/api"
	"github.com/joestump/joe-writer/internal/catalog"
	"github.com/joestump/joe-writer/internal/llm"
)

// fakeProvider is a scripted llm.Provider.
type fakeProvider struct {
	mu       sync.Mutex
	reply    string
	deltas   []string
	err      error
	errAfter int // fail Stream after this many deltas; -1 never
	got      []llm.Message
}

func (p *fakeProvider) Complete(_ context.Context, messages []llm.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = messages
	return p.reply, p.err
}

func (p *fakeProvider) Stream(_ context.Context, messages []llm.Message, onDelta func(string) error) error {
	p.mu.Lock()
	p.got = messages
	deltas, err, errAfter := p.deltas, p.err, p.errAfter
	p.mu.Unlock()

	for i, d := range deltas {
		if err != nil && i == errAfter {
			return err
		}
		if e := onDelta(d); e != nil {
			return e
		}
	}
	return err
}

func (p *fakeProvider) messages() []llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.got
}

// fakeLimiter admits the first n requests.
type fakeLimiter struct {
	mu   sync.Mutex
	n    int
	err  error
	keys []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	if l.err != nil {
		return false, l.err
	}
	if l.n <= 0 {
		return false, nil
	}
	l.n--
	return true, nil
}

var errUpstream = errors.New("upstream exploded: secret detail")

const testCatalog = `
templates:
  - title: Blog Post
    prompt: "Write about {topic}"
    form:
      - {label: Topic, field: input, name: topic}
  - title: Email
    prompt: "Email {recipient}"
    form:
      - {label: Recipient, field: select, name: recipient, options: [boss, team]}
`

// newTestRouter wires the API router around p. A nil p leaves generation
// unconfigured.
func newTestRouter(t *testing.T, p llm.Provider, limiter *fakeLimiter) http.Handler {
	t.Helper()
	cat, err := catalog.Load(strings.NewReader(testCatalog))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	deps := api.Deps{
		Catalog: cat,
		Timeout: time.Second,
	}
	if p != nil {
		deps.Writer = llm.NewWriter(p, "", "default system")
	}
	if limiter != nil {
		deps.Limiter = limiter
		deps.RateLimit = api.RateLimitConfig{Requests: 10, Window: time.Minute}
	}
	return api.NewAPIRouter(deps)
}
