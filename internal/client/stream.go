package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/openai/openai-go/packages/ssestream"

	"github.com/joestump/joe-writer/internal/llm"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("stream consumer closed")

// doneMarker terminates a chat stream.
const doneMarker = "[DONE]"

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages  []llm.Message `json:"messages"`
	SystemMsg string        `json:"systemMsg,omitempty"`
}

type chatEvent struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Update reports progress of one chat turn. Content is the assistant text
// accumulated so far. The last Update of a turn has Done set; Aborted marks
// a turn cut short by a newer turn, Abort or Close.
type Update struct {
	Delta   string
	Content string
	Done    bool
	Aborted bool
	Err     error
}

// StreamConsumer runs a multi-turn conversation against POST /chat. At most
// one turn is in flight; its chunks are appended to the latest assistant
// message in arrival order.
type StreamConsumer struct {
	baseURL string
	opts    options

	mu         sync.Mutex
	system     string
	transcript []llm.Message
	cancel     context.CancelFunc
	done       chan struct{}
	closed     bool
}

// NewStreamConsumer returns a consumer for the backend at baseURL.
func NewStreamConsumer(baseURL string, opts ...Option) *StreamConsumer {
	return &StreamConsumer{
		baseURL: baseURL,
		opts:    buildOptions(DefaultChatTimeout, opts),
	}
}

// SetSystemPrompt sets the instruction sent with every turn. Empty leaves the
// choice to the backend.
func (s *StreamConsumer) SetSystemPrompt(prompt string) {
	s.mu.Lock()
	s.system = prompt
	s.mu.Unlock()
}

// Transcript returns a copy of the conversation so far.
func (s *StreamConsumer) Transcript() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Busy reports whether a turn is in flight.
func (s *StreamConsumer) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Send starts a turn with the user's content. A turn already in flight is
// aborted first; its partial reply stays in the transcript. The returned
// channel must be drained; it is closed after the final Update.
func (s *StreamConsumer) Send(ctx context.Context, content string) (<-chan Update, error) {
	s.mu.Lock()
	for s.cancel != nil {
		s.abortLocked()
	}
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}

	s.transcript = append(s.transcript, llm.Message{Role: llm.RoleUser, Content: content})
	history := make([]llm.Message, len(s.transcript))
	copy(history, s.transcript)
	s.transcript = append(s.transcript, llm.Message{Role: llm.RoleAssistant})
	idx := len(s.transcript) - 1
	system := s.system

	var (
		turnCtx context.Context
		cancel  context.CancelFunc
	)
	if s.opts.timeout > 0 {
		turnCtx, cancel = context.WithTimeout(ctx, s.opts.timeout)
	} else {
		turnCtx, cancel = context.WithCancel(ctx)
	}
	aborted := make(chan struct{})
	var abortOnce sync.Once
	s.cancel = func() {
		abortOnce.Do(func() { close(aborted) })
		cancel()
	}
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	updates := make(chan Update, 16)
	go func() {
		defer close(updates)
		defer func() {
			cancel()
			s.mu.Lock()
			s.cancel = nil
			s.done = nil
			s.mu.Unlock()
			close(done)
		}()

		err := s.Stream(turnCtx, history, system, func(delta string) error {
			s.mu.Lock()
			s.transcript[idx].Content += delta
			acc := s.transcript[idx].Content
			s.mu.Unlock()

			select {
			case updates <- Update{Delta: delta, Content: acc}:
				return nil
			case <-turnCtx.Done():
				return turnCtx.Err()
			}
		})

		s.mu.Lock()
		final := Update{Content: s.transcript[idx].Content, Done: true}
		s.mu.Unlock()

		select {
		case <-aborted:
			final.Aborted = true
			select {
			case updates <- final:
			default:
			}
			return
		default:
		}
		if err != nil {
			var ce *Error
			if !errors.As(err, &ce) {
				err = transportOrUnknown(err)
			}
		}
		final.Err = err
		select {
		case updates <- final:
		case <-aborted:
		}
	}()

	return updates, nil
}

// abortLocked cancels the turn in flight and waits for it to finish. s.mu
// is held on entry and on return but released while waiting.
func (s *StreamConsumer) abortLocked() {
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	cancel()
	<-done
	s.mu.Lock()
}

// Abort cancels the turn in flight, if any, and waits for it to end.
func (s *StreamConsumer) Abort() {
	s.mu.Lock()
	for s.cancel != nil {
		s.abortLocked()
	}
	s.mu.Unlock()
}

// Reset aborts any turn in flight and clears the transcript.
func (s *StreamConsumer) Reset() {
	s.mu.Lock()
	for s.cancel != nil {
		s.abortLocked()
	}
	s.transcript = nil
	s.mu.Unlock()
}

// Close aborts any turn in flight and rejects further turns.
func (s *StreamConsumer) Close() {
	s.mu.Lock()
	s.closed = true
	for s.cancel != nil {
		s.abortLocked()
	}
	s.mu.Unlock()
}

// Stream posts a conversation to /chat and calls onChunk with each text
// fragment in arrival order. An error from onChunk stops the stream and is
// returned unchanged; other failures are *Error values.
func (s *StreamConsumer) Stream(ctx context.Context, messages []llm.Message, system string, onChunk func(string) error) error {
	payload, err := json.Marshal(ChatRequest{Messages: messages, SystemMsg: system})
	if err != nil {
		return &Error{Kind: KindUnknown, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(s.baseURL, "/chat"), bytes.NewReader(payload))
	if err != nil {
		return &Error{Kind: KindUnknown, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	s.opts.applyHeaders(httpReq)

	resp, err := s.opts.httpClient.Do(httpReq)
	if err != nil {
		return transportOrUnknown(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return requestFailed(resp.StatusCode, backendError(body))
	}

	dec := ssestream.NewDecoder(resp)
	defer dec.Close()

	for dec.Next() {
		data := bytes.TrimSpace(dec.Event().Data)
		if len(data) == 0 {
			continue
		}
		if string(data) == doneMarker {
			return nil
		}

		var ev chatEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return malformed(fmt.Errorf("decode chunk: %w", err))
		}
		if ev.Error != "" {
			return requestFailed(resp.StatusCode, errors.New(ev.Error))
		}
		if ev.Text == "" {
			continue
		}
		if err := onChunk(ev.Text); err != nil {
			return err
		}
	}
	if err := dec.Err(); err != nil {
		return transportOrUnknown(fmt.Errorf("read stream: %w", err))
	}
	return malformed(errors.New("stream ended without [DONE]"))
}
