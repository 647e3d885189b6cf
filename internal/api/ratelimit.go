package api

import (
	"net"
	"net/http"
	"time"

	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/metrics"
	"github.com/joestump/joe-writer/internal/ratelimit"
)

// WorkspaceHeader carries the workspace ID on requests the server's own web
// workspaces send over loopback. It is ignored from any other address.
const WorkspaceHeader = "X-Writer-Workspace"

// RateLimitConfig bounds requests per client address and path.
type RateLimitConfig struct {
	Requests  int
	Window    time.Duration
	KeyPrefix string
}

// rateLimit rejects requests over the configured budget with 429. Limiter
// failures let the request through.
func rateLimit(cfg RateLimitConfig, limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	if limiter == nil || cfg.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "joewriter:ratelimit"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.KeyPrefix + ":" + rateLimitSubject(r) + ":" + r.URL.Path
			allowed, err := limiter.Allow(r.Context(), key, cfg.Requests, cfg.Window)
			if err != nil {
				logger.Warn(r.Context(), "api: rate limiter unavailable", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				metrics.RateLimitedTotal.Inc()
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded", "RATE_LIMITED")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitSubject identifies who a request counts against: the workspace for
// loopback calls that name one, the client address otherwise.
func rateLimitSubject(r *http.Request) string {
	ip := clientIP(r)
	if id := r.Header.Get(WorkspaceHeader); id != "" {
		if addr := net.ParseIP(ip); addr != nil && addr.IsLoopback() {
			return "workspace:" + id
		}
	}
	return ip
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
