package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/firebase/genkit/go/genkit"
	"github.com/va6996/querytools/config"
	"github.com/va6996/querytools/embedding"
	"github.com/va6996/querytools/engine"
	"github.com/va6996/querytools/log"
	"github.com/va6996/querytools/orm"
	"github.com/va6996/querytools/plugins/similarity"
	"github.com/va6996/querytools/plugins/sqlengine"
	"github.com/va6996/querytools/tools"
	"github.com/va6996/querytools/vectorsearch"
)

// App holds the initialized components of the application
type App struct {
	Config   *config.Config
	Engine   *engine.SQLEngine
	Embedder embedding.Embedder
	Catalog  *orm.Catalog
	Searcher *vectorsearch.Searcher
	Genkit   *genkit.Genkit
	Registry *tools.Registry
}

// Setup initializes the application components based on the configuration
func Setup(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// 1. SQL engine
	format, err := engine.ParseFormat(cfg.Engine.ResultFormat)
	if err != nil {
		return nil, err
	}

	log.Infof(ctx, "Opening %s engine...", cfg.Engine.Driver)
	app.Engine, err = engine.Open(ctx, cfg.Engine.Driver, cfg.Engine.DSN, engine.Options{MaxOpenConns: cfg.Engine.MaxOpenConns})
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	// 2. Embeddings and vector search
	app.Embedder, err = embedding.New(ctx, cfg.Embedding)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	log.Infof(ctx, "Using %s embeddings (dim %d)", app.Embedder.Name(), app.Embedder.Dim())

	if cfg.VectorStore.Dir != "" {
		if cfg.VectorStore.LegacyDirBranch {
			log.Warnf(ctx, "VECTOR_STORE_LEGACY_BRANCH is set: similar_value will reject every lookup while VECTOR_STORE_DIR is configured")
		} else if err := os.MkdirAll(cfg.VectorStore.Dir, 0o755); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to create vector store dir: %w", err)
		}
	}

	var searchOpts []vectorsearch.Option
	if catalogDSN := CatalogDSN(cfg.VectorStore); catalogDSN != "" {
		app.Catalog, err = orm.OpenCatalog(cfg.VectorStore.CatalogDriver, catalogDSN)
		if err != nil {
			app.Close()
			return nil, err
		}
		searchOpts = append(searchOpts, vectorsearch.WithCatalog(app.Catalog))
	}
	app.Searcher = vectorsearch.NewSearcher(app.Embedder, searchOpts...)

	// 3. Tools
	app.Genkit = genkit.Init(ctx)
	app.Registry = tools.NewRegistry()

	if err := sqlengine.RegisterTools(app.Genkit, app.Registry, app.Engine, format); err != nil {
		app.Close()
		return nil, err
	}
	if err := similarity.RegisterTools(app.Genkit, app.Registry, app.Engine, app.Searcher, similarity.Options{
		Dir:             cfg.VectorStore.Dir,
		LegacyDirBranch: cfg.VectorStore.LegacyDirBranch,
	}); err != nil {
		app.Close()
		return nil, err
	}

	log.Infof(ctx, "Registered %d tools", len(app.Registry.List()))
	return app, nil
}

// CatalogDSN is the configured catalog DSN, defaulting to catalog.db in the
// vector store dir for sqlite. Empty means no catalog.
func CatalogDSN(cfg config.VectorStoreConfig) string {
	if cfg.CatalogDSN != "" {
		return cfg.CatalogDSN
	}
	if cfg.Dir == "" || cfg.LegacyDirBranch {
		return ""
	}
	switch cfg.CatalogDriver {
	case "", "sqlite", "sqlite3":
		return filepath.Join(cfg.Dir, "catalog.db")
	}
	return ""
}

// Close releases everything Setup opened
func (a *App) Close() error {
	var errs []error
	if a.Catalog != nil {
		errs = append(errs, a.Catalog.Close())
	}
	if closer, ok := a.Embedder.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if a.Engine != nil {
		errs = append(errs, a.Engine.Close())
	}
	return errors.Join(errs...)
}
