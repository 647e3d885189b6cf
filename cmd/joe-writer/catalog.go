package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/joestump/joe-writer/internal/catalog"
	"github.com/joestump/joe-writer/internal/config"
	"github.com/joestump/joe-writer/internal/db"
	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/store"
)

// openDB connects and migrates the configured database. It returns nil when
// no database is configured.
func openDB(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.DB.Driver == "" {
		return nil, nil
	}
	database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database, cfg.DB.Driver); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

// fileCatalog reads the configured catalog file, or the built-in catalog.
func fileCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Templates.File != "" {
		return catalog.LoadFile(cfg.Templates.File)
	}
	return catalog.Default()
}

// loadCatalog resolves the template catalog. With a database the stored
// templates win; an empty table is seeded from the file or built-in catalog.
func loadCatalog(ctx context.Context, cfg *config.Config, database *sqlx.DB) (*catalog.Catalog, error) {
	if database == nil {
		return fileCatalog(cfg)
	}

	ts := store.NewTemplateStore(database)
	n, err := ts.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count templates: %w", err)
	}
	if n == 0 {
		seed, err := fileCatalog(cfg)
		if err != nil {
			return nil, err
		}
		if err := ts.ReplaceAll(ctx, seed.All()); err != nil {
			return nil, fmt.Errorf("seed templates: %w", err)
		}
		logger.Info(ctx, "seeded template catalog", "templates", seed.Len())
	}
	return ts.LoadCatalog(ctx)
}
