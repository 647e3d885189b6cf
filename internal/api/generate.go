package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/joestump/joe-writer/internal/llm"
	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/metrics"
	"github.com/joestump/joe-writer/internal/tracing"
)

// generateAPIHandler provides the POST /api/generate endpoint.
type generateAPIHandler struct {
	writer  *llm.Writer
	timeout time.Duration
}

// Generate produces text for a fully interpolated prompt.
// POST /api/generate
//
// @Summary      Generate content
// @Description  Sends the prompt to the configured language model with the requested language and tone
// @Tags         Generation
// @Accept       json
// @Produce      json
// @Param        request  body      GenerateRequest  true  "Prompt, language and tone"
// @Success      200      {object}  GenerateResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      429      {object}  ErrorResponse
// @Failure      502      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse
// @Router       /generate [post]
func (h *generateAPIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required", "BAD_REQUEST")
		return
	}

	if h.writer == nil {
		writeError(w, http.StatusServiceUnavailable, "generation not configured", "LLM_NOT_CONFIGURED")
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	ctx, span := tracing.Start(ctx, "api.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("generate.language", req.Language),
		attribute.String("generate.tone", req.Tone),
		attribute.Int("generate.prompt_length", len(req.Message)),
	)

	start := time.Now()
	content, err := h.writer.Generate(ctx, llm.GenerateRequest{
		Message:  req.Message,
		Language: req.Language,
		Tone:     req.Tone,
	})
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		tracing.RecordError(span, err)
		metrics.GenerationsTotal.WithLabelValues("error").Inc()
		logger.Error(ctx, "api: generate LLM error", err)
		writeError(w, http.StatusBadGateway, "generation failed", "LLM_ERROR")
		return
	}

	metrics.GenerationsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, GenerateResponse{Content: content})
}
