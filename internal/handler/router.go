package handler

import (
	"io/fs"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/joestump/joe-writer/docs/swagger"
	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/workspace"
	"github.com/joestump/joe-writer/web"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	SessionManager *scs.SessionManager
	Registry       *workspace.Registry
	// API is mounted at /api; nil leaves it out.
	API              http.Handler
	ChatSystemPrompt string
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)

	// Static assets (embedded). Use fs.Sub so the file server sees
	// css/app.css and js/app.js directly, not static/css/... paths.
	staticSub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("failed to sub static FS: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static", http.FileServerFS(staticSub)))

	r.Get("/healthz", Health(deps.Registry))
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/theme", NewThemeHandler().Toggle)

	// Browser pages carry the scs session that maps to a workspace. The API
	// stays outside it so streamed responses are not buffered.
	ws := NewWorkspaceHandler(deps.SessionManager, deps.Registry)
	chat := NewChatHandler(deps.ChatSystemPrompt)
	r.Group(func(r chi.Router) {
		r.Use(deps.SessionManager.LoadAndSave)

		r.Get("/", ws.Index)
		r.Get("/workspace/templates", ws.Templates)
		r.Post("/workspace/template", ws.SelectTemplate)
		r.Post("/workspace/fields", ws.Fields)
		r.Post("/workspace/settings", ws.Settings)
		r.Post("/workspace/generate", ws.Generate)
		r.Get("/workspace/result", ws.Result)
		r.Put("/workspace/result", ws.UpdateResult)
		r.Get("/workspace/result.txt", ws.ResultText)

		r.Get("/chat", chat.Show)
	})

	// Swagger UI must be registered before the /api mount.
	r.Get("/api/docs/*", httpSwagger.WrapHandler)
	if deps.API != nil {
		r.Mount("/api", deps.API)
	}

	return r
}
