package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joestump/joe-writer/internal/api"
	"github.com/joestump/joe-writer/internal/build"
	"github.com/joestump/joe-writer/internal/client"
	"github.com/joestump/joe-writer/internal/config"
	"github.com/joestump/joe-writer/internal/handler"
	"github.com/joestump/joe-writer/internal/llm"
	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/ratelimit"
	"github.com/joestump/joe-writer/internal/tracing"
	"github.com/joestump/joe-writer/internal/workspace"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := tracing.Init(ctx, tracing.Config{
				Enabled:    cfg.Tracing.Enabled,
				Endpoint:   cfg.Tracing.Endpoint,
				SampleRate: cfg.Tracing.SampleRate,
				Version:    build.Version,
			})
			if err != nil {
				return err
			}
			defer func() { _ = shutdownTracing(context.Background()) }()

			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			if database != nil {
				defer func() { _ = database.Close() }()
			}

			cat, err := loadCatalog(ctx, cfg, database)
			if err != nil {
				return err
			}

			provider, err := llm.New(cfg)
			if err != nil {
				return err
			}
			var writer *llm.Writer
			if provider != nil {
				writer = llm.NewWriter(provider, cfg.LLM.Prompt, cfg.Chat.SystemPrompt)
			} else {
				logger.Warn(ctx, "no LLM provider configured; generation and chat are disabled")
			}

			var limiter ratelimit.Limiter
			if cfg.Redis.Addr != "" {
				rdb, err := ratelimit.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
				if err != nil {
					return err
				}
				defer func() { _ = rdb.Close() }()
				limiter = ratelimit.NewRedisLimiter(rdb)
			}

			apiRouter := api.NewAPIRouter(api.Deps{
				Writer:  writer,
				Catalog: cat,
				Timeout: cfg.LLM.Timeout,
				Limiter: limiter,
				RateLimit: api.RateLimitConfig{
					Requests: cfg.RateLimit.Requests,
					Window:   cfg.RateLimit.Window,
				},
			})

			sessionManager := scs.New()
			sessionManager.Lifetime = cfg.SessionLifetime
			sessionManager.Cookie.Name = "joe_writer_session"
			sessionManager.Cookie.HttpOnly = true
			sessionManager.Cookie.SameSite = http.SameSiteLaxMode

			// Workspaces reach the API over HTTP like any other client. The
			// workspace ID gives each browser its own rate-limit bucket.
			registry := workspace.NewRegistry(cat, func(id string) workspace.Generator {
				return client.NewGenerationClient(cfg.Backend.URL,
					client.WithTimeout(cfg.Generate.Timeout),
					client.WithHeader(api.WorkspaceHeader, id))
			}, cfg.SessionLifetime)

			router := handler.NewRouter(handler.Deps{
				SessionManager:   sessionManager,
				Registry:         registry,
				API:              apiRouter,
				ChatSystemPrompt: cfg.Chat.SystemPrompt,
			})

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info(gctx, "listening", "addr", cfg.HTTP.Addr, "templates", cat.Len(), "version", build.Version)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				registry.Run(gctx, sweepInterval)
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info(context.Background(), "shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}
