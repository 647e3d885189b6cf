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

	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/metrics"
)

// Phase is the lifecycle position of the generation client.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// GenerationRequest is the body of POST /generate.
type GenerationRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
	Tone     string `json:"tone"`
}

// GenerationResult is the body of a successful POST /generate.
type GenerationResult struct {
	Content string `json:"content"`
}

// Outcome is the completion of one Generate call.
type Outcome struct {
	Seq    uint64
	Result GenerationResult
	Err    error
}

// State is a snapshot of the client lifecycle. Seq identifies the most
// recent request.
type State struct {
	Phase Phase
	Err   error
	Seq   uint64
}

// GenerationClient sends generation requests. Only the most recently issued
// request may complete the lifecycle: outcomes of superseded requests are
// dropped.
type GenerationClient struct {
	baseURL string
	opts    options

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// NewGenerationClient returns a client for the backend at baseURL.
func NewGenerationClient(baseURL string, opts ...Option) *GenerationClient {
	return &GenerationClient{
		baseURL: baseURL,
		opts:    buildOptions(DefaultGenerateTimeout, opts),
	}
}

// State returns the current lifecycle state.
func (c *GenerationClient) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generate starts a request and returns its sequence number without
// waiting. The client moves to PhaseLoading and clears any previous error.
// deliver is called from another goroutine once the request completes, and
// only if no newer request was started in the meantime.
func (c *GenerationClient) Generate(ctx context.Context, req GenerationRequest, deliver func(Outcome)) uint64 {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.state.Seq++
	seq := c.state.Seq
	c.state.Phase = PhaseLoading
	c.state.Err = nil

	var (
		reqCtx context.Context
		cancel context.CancelFunc
	)
	if c.opts.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.opts.timeout)
	} else {
		reqCtx, cancel = context.WithCancel(ctx)
	}
	c.cancel = cancel
	c.mu.Unlock()

	go func() {
		defer cancel()
		res, err := c.Do(reqCtx, req)

		c.mu.Lock()
		if seq != c.state.Seq {
			c.mu.Unlock()
			metrics.StaleResultsTotal.Inc()
			logger.Debug(ctx, "dropping superseded generation", "seq", seq)
			return
		}
		c.cancel = nil
		if err != nil {
			c.state.Phase = PhaseError
			c.state.Err = err
		} else {
			c.state.Phase = PhaseSuccess
		}
		c.mu.Unlock()

		if deliver != nil {
			deliver(Outcome{Seq: seq, Result: res, Err: err})
		}
	}()
	return seq
}

// Do sends req and waits for the result. Failures are *Error values.
func (c *GenerationClient) Do(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return GenerationResult{}, &Error{Kind: KindUnknown, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(c.baseURL, "/generate"), bytes.NewReader(payload))
	if err != nil {
		return GenerationResult{}, &Error{Kind: KindUnknown, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	c.opts.applyHeaders(httpReq)

	resp, err := c.opts.httpClient.Do(httpReq)
	if err != nil {
		return GenerationResult{}, transportOrUnknown(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return GenerationResult{}, transportOrUnknown(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return GenerationResult{}, requestFailed(resp.StatusCode, backendError(body))
	}

	var out struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return GenerationResult{}, malformed(fmt.Errorf("decode response: %w", err))
	}
	if out.Content == nil {
		return GenerationResult{}, malformed(errors.New("response has no content"))
	}
	return GenerationResult{Content: *out.Content}, nil
}

// backendError extracts the message of a JSON error body, if any.
func backendError(body []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return errors.New(e.Error)
	}
	return nil
}
