// Package workspace holds the per-user generation session: template
// selection, form values, language and tone, the generation lifecycle and
// the editable result. All state is owned by one goroutine per session and
// changed only by messages.
package workspace

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joestump/joe-writer/internal/catalog"
	"github.com/joestump/joe-writer/internal/client"
	"github.com/joestump/joe-writer/internal/clipboard"
	"github.com/joestump/joe-writer/internal/form"
	"github.com/joestump/joe-writer/internal/llm"
	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/prompt"
	"github.com/joestump/joe-writer/internal/result"
)

// ErrClosed is returned when messaging a closed session.
var ErrClosed = errors.New("workspace closed")

// Generator starts generation requests. *client.GenerationClient satisfies it.
type Generator interface {
	Generate(ctx context.Context, req client.GenerationRequest, deliver func(client.Outcome)) uint64
}

// state is everything a session knows. Only the session loop touches it.
type state struct {
	selected *catalog.UseCaseTemplate
	form     form.State
	language string
	tone     string
	phase    client.Phase
	err      error
	pending  uint64
	result   result.Store
}

// View is an immutable snapshot of a session for rendering.
type View struct {
	Template *catalog.UseCaseTemplate
	Form     form.Data
	Language string
	Tone     string
	Phase    client.Phase
	Err      error
	Result   string
	Prompt   string
	Missing  []string
}

// Loading reports whether a generation is in flight.
func (v View) Loading() bool { return v.Phase == client.PhaseLoading }

// Value returns the form value for a field, or "".
func (v View) Value(name string) string {
	val, _ := v.Form.Get(name)
	return val
}

// ErrorMessage is the user-facing text for the last failure.
func (v View) ErrorMessage() string {
	if v.Err == nil {
		return ""
	}
	switch client.KindOf(v.Err) {
	case client.KindTransport:
		return "Failed to generate content: the server could not be reached."
	case client.KindMalformedResponse:
		return "Failed to generate content: the server sent an unexpected response."
	default:
		return "Failed to generate content"
	}
}

type envelope struct {
	msg   Message
	reply chan View
}

// Session is one user's workspace.
type Session struct {
	ID string

	catalog *catalog.Catalog
	gen     Generator

	ctx      context.Context
	cancel   context.CancelFunc
	inbox    chan envelope
	done     chan struct{}
	lastSeen atomic.Int64
	once     sync.Once

	st state
}

// NewSession starts a session loop. Close releases it.
func NewSession(id string, cat *catalog.Catalog, gen Generator) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logger.WithContext(ctx, logger.WorkspaceIDKey, id)
	s := &Session{
		ID:      id,
		catalog: cat,
		gen:     gen,
		ctx:     ctx,
		cancel:  cancel,
		inbox:   make(chan envelope),
		done:    make(chan struct{}),
		st: state{
			language: llm.DefaultLanguage,
			tone:     llm.DefaultTone,
		},
	}
	s.touch()
	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case env := <-s.inbox:
			env.msg.apply(s)
			if env.reply != nil {
				env.reply <- s.view()
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// Send applies msg and returns the resulting view.
func (s *Session) Send(ctx context.Context, msg Message) (View, error) {
	s.touch()
	reply := make(chan View, 1)
	select {
	case s.inbox <- envelope{msg: msg, reply: reply}:
	case <-s.ctx.Done():
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.ctx.Done():
		return View{}, ErrClosed
	}
}

// View returns the current snapshot.
func (s *Session) View(ctx context.Context) (View, error) {
	return s.Send(ctx, snapshot{})
}

// Copy writes the current result to w.
func (s *Session) Copy(ctx context.Context, w clipboard.Writer) error {
	msg := &copyResult{w: w}
	if _, err := s.Send(ctx, msg); err != nil {
		return err
	}
	return msg.err
}

// Close stops the loop and cancels any generation in flight.
func (s *Session) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// LastSeen is when the session last received a message.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch() { s.lastSeen.Store(time.Now().UnixNano()) }

// deliver hands a generation outcome back to the loop.
func (s *Session) deliver(o client.Outcome) {
	select {
	case s.inbox <- envelope{msg: generationDone{outcome: o}}:
	case <-s.ctx.Done():
	}
}

func (s *Session) view() View {
	v := View{
		Form:     s.st.form.Snapshot(),
		Language: s.st.language,
		Tone:     s.st.tone,
		Phase:    s.st.phase,
		Err:      s.st.err,
		Result:   s.st.result.Read(),
	}
	if s.st.selected != nil {
		t := *s.st.selected
		v.Template = &t
		v.Prompt = prompt.Interpolate(t.Prompt, v.Form)
		v.Missing = form.MissingRequired(t.Fields, v.Form)
	}
	return v
}
