package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	appai "github.com/bryanwahyu/exploitsearch/internal/application/ai"
	appexploits "github.com/bryanwahyu/exploitsearch/internal/application/exploits"
	"github.com/bryanwahyu/exploitsearch/internal/config"
	domai "github.com/bryanwahyu/exploitsearch/internal/domain/ai"
	"github.com/bryanwahyu/exploitsearch/internal/domain/analyst"
	"github.com/bryanwahyu/exploitsearch/internal/domain/exploits"
	"github.com/bryanwahyu/exploitsearch/internal/infra/ai/gemini"
	"github.com/bryanwahyu/exploitsearch/internal/infra/ai/openai"
	csvcatalog "github.com/bryanwahyu/exploitsearch/internal/infra/catalog/csv"
	mysqlp "github.com/bryanwahyu/exploitsearch/internal/infra/db/mysql"
	"github.com/bryanwahyu/exploitsearch/internal/infra/db/postgres"
	"github.com/bryanwahyu/exploitsearch/internal/infra/db/sqlite"
	"github.com/bryanwahyu/exploitsearch/internal/infra/export"
	"github.com/bryanwahyu/exploitsearch/internal/infra/highlight"
	"github.com/bryanwahyu/exploitsearch/internal/infra/storage"
)

// app holds the wired services of one process.
type app struct {
	cfg      *config.Config
	exploits *appexploits.Service
	ai       *appai.Service
	db       *sql.DB
}

// newAIClient is swapped in tests.
var newAIClient = func(ctx context.Context, cfg *config.Config) (domai.Client, error) {
	if !cfg.AIEnabled() {
		log.Printf("warning: AI analysis disabled, no API key in %s", cfg.AI.APIKeyEnv)
		return nil, nil
	}
	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.BaseURL != "" {
			return openai.NewClientWithBaseURL(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL), nil
		}
		return openai.NewClient(cfg.AI.APIKey, cfg.AI.Model), nil
	default:
		return gemini.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
	}
}

type repository interface {
	analyst.Repository
	Migrate(ctx context.Context) error
}

func openRepository(ctx context.Context, cfg *config.Config) (repository, *sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	dsn := cfg.DatabaseDSN()
	switch cfg.Database.Driver {
	case "":
		return nil, nil, nil
	case "mysql":
		db, err = mysqlp.Connect(ctx, dsn)
	case "postgres":
		db, err = postgres.Connect(ctx, dsn)
	case "sqlite":
		db, err = sqlite.Connect(ctx, dsn)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
	}

	var repo repository
	switch cfg.Database.Driver {
	case "mysql":
		repo = mysqlp.NewAnalystRepository(db)
	case "postgres":
		repo = postgres.NewAnalystRepository(db)
	default:
		repo = sqlite.NewAnalystRepository(db)
	}
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%s migrate: %w", cfg.Database.Driver, err)
	}
	return repo, db, nil
}

// buildApp wires catalog, analysis and the optional history and report
// storage. A missing catalog, database or object store is logged and the
// feature is left out.
func buildApp(ctx context.Context, cfg *config.Config) *app {
	catalog, err := appexploits.LoadCatalog(ctx, csvcatalog.NewLoader(cfg.Catalog.Path))
	switch {
	case errors.Is(err, exploits.ErrCatalogNotFound):
		log.Printf("error: catalog file %q not found, continuing with an empty catalog", cfg.Catalog.Path)
	case err != nil:
		log.Printf("error: catalog load failed: path=%s err=%v", cfg.Catalog.Path, err)
	default:
		log.Printf("catalog loaded: path=%s records=%d", cfg.Catalog.Path, catalog.Len())
	}

	client, err := newAIClient(ctx, cfg)
	if err != nil {
		log.Printf("warning: AI analysis disabled: provider=%s err=%v", cfg.AI.Provider, err)
		client = nil
	}

	a := &app{cfg: cfg}
	var repo analyst.Repository
	if r, db, err := openRepository(ctx, cfg); err != nil {
		log.Printf("warning: analysis history disabled: %v", err)
	} else if r != nil {
		repo, a.db = r, db
	}

	a.exploits = &appexploits.Service{
		Catalog:     catalog,
		Highlighter: highlight.New(),
		Export:      export.Options{FontPath: cfg.Export.FontPath},
		SourceRoot:  cfg.Catalog.SourceRoot,
	}
	if cfg.MinioEnabled() {
		store, err := storage.New(ctx, storage.Config{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
			Prefix:    cfg.Minio.Prefix,
		})
		if err != nil {
			log.Printf("warning: report upload disabled: %v", err)
		} else {
			a.exploits.Reports = store
		}
	}

	a.ai = appai.NewService(appai.NewCoordinator(client, nil), repo)
	return a
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

// describe turns sentinel errors into user facing messages.
func describe(err error) string {
	switch {
	case errors.Is(err, domai.ErrDisabled):
		return "AI analysis disabled - no API key configured"
	case errors.Is(err, domai.ErrQuotaExceeded):
		return "AI quota exceeded, try again later"
	case errors.Is(err, export.ErrNothingToExport):
		return "no analysis to export"
	default:
		return err.Error()
	}
}
