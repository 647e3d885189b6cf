package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-contrib/sse"

	"github.com/joestump/joe-writer/internal/llm"
	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/metrics"
	"github.com/joestump/joe-writer/internal/tracing"
)

// streamDone is the data of the final event on a chat stream.
const streamDone = "[DONE]"

// chatAPIHandler provides the POST /api/chat endpoint.
type chatAPIHandler struct {
	writer *llm.Writer
}

// Chat streams the assistant's reply to a conversation as server-sent events.
// POST /api/chat
//
// @Summary      Stream a chat reply
// @Description  Each event carries {"text": fragment}; a failure mid-stream sends {"error": message}; the stream ends with [DONE]
// @Tags         Chat
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body      ChatRequest  true  "Conversation so far and optional system instruction"
// @Success      200      {object}  ChatChunk
// @Failure      400      {object}  ErrorResponse
// @Failure      429      {object}  ErrorResponse
// @Failure      502      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse
// @Router       /chat [post]
func (h *chatAPIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required", "BAD_REQUEST")
		return
	}
	messages := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := llm.Role(m.Role)
		if role != llm.RoleUser && role != llm.RoleAssistant && role != llm.RoleSystem {
			writeError(w, http.StatusBadRequest, "role must be one of: user, assistant, system", "BAD_REQUEST")
			return
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}

	if h.writer == nil {
		writeError(w, http.StatusServiceUnavailable, "chat not configured", "LLM_NOT_CONFIGURED")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "INTERNAL")
		return
	}

	ctx, span := tracing.Start(r.Context(), "api.chat")
	defer span.End()

	// Headers are deferred until the first fragment so that a provider
	// failure before any output can still be reported as a JSON error.
	started := false
	start := func() {
		hdr := w.Header()
		hdr.Set("Content-Type", "text/event-stream")
		hdr.Set("Cache-Control", "no-cache")
		hdr.Set("Connection", "keep-alive")
		hdr.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		started = true
	}

	err := h.writer.Chat(ctx, messages, req.SystemMsg, func(delta string) error {
		if !started {
			start()
		}
		if err := sse.Encode(w, sse.Event{Data: ChatChunk{Text: delta}}); err != nil {
			return err
		}
		flusher.Flush()
		metrics.ChatChunksTotal.Inc()
		return nil
	})

	switch {
	case err != nil && ctx.Err() != nil:
		metrics.ChatStreamsTotal.WithLabelValues("canceled").Inc()
		logger.Debug(ctx, "api: chat stream canceled by client")
		return
	case err != nil:
		tracing.RecordError(span, err)
		metrics.ChatStreamsTotal.WithLabelValues("error").Inc()
		logger.Error(ctx, "api: chat LLM error", err, "started", started)
		if !started {
			writeError(w, http.StatusBadGateway, "chat failed", "LLM_ERROR")
			return
		}
		_ = sse.Encode(w, sse.Event{Data: ChatChunk{Error: "stream interrupted"}})
		flusher.Flush()
		return
	}

	if !started {
		start()
	}
	_ = sse.Encode(w, sse.Event{Data: streamDone})
	flusher.Flush()
	metrics.ChatStreamsTotal.WithLabelValues("success").Inc()
}
