package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joestump/joe-writer/internal/catalog"
	"github.com/joestump/joe-writer/internal/llm"
	"github.com/joestump/joe-writer/internal/ratelimit"
)

// Deps holds all dependencies required to build the API router.
type Deps struct {
	// Writer is nil when no LLM provider is configured.
	Writer  *llm.Writer
	Catalog *catalog.Catalog
	// Timeout bounds each upstream generation call. Zero means no bound.
	Timeout time.Duration
	// Limiter is optional; nil disables rate limiting.
	Limiter   ratelimit.Limiter
	RateLimit RateLimitConfig
}

// NewAPIRouter creates a chi sub-router mounted at /api.
func NewAPIRouter(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(rateLimit(deps.RateLimit, deps.Limiter))

	gen := &generateAPIHandler{writer: deps.Writer, timeout: deps.Timeout}
	chat := &chatAPIHandler{writer: deps.Writer}
	tmpl := &templatesAPIHandler{catalog: deps.Catalog}

	r.Group(func(r chi.Router) {
		r.Use(jsonContentType)
		r.Post("/generate", gen.Generate)
		r.Get("/templates", tmpl.List)
	})
	r.Post("/chat", chat.Chat)

	return r
}

// jsonContentType is a middleware that sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
