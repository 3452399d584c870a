package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/querytools/config"
	"github.com/va6996/querytools/engine"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Engine: config.EngineConfig{
			Driver:       "sqlite3",
			DSN:          filepath.Join(dir, "warehouse.db"),
			ResultFormat: "tuples",
			MaxOpenConns: 1,
		},
		Embedding: config.EmbeddingConfig{Provider: "local", Local: config.LocalConfig{Dim: 128}},
		VectorStore: config.VectorStoreConfig{
			Dir:           filepath.Join(dir, "indexes"),
			CatalogDriver: "sqlite",
		},
	}
}

func TestSetup(t *testing.T) {
	ctx := context.Background()
	app, err := Setup(ctx, testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	names := []string{}
	for _, tool := range app.Registry.List() {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{"query_sql_db", "query_validation", "similar_value"}, names)
	assert.Len(t, app.Registry.GetTools(), 3)
	require.NotNil(t, app.Catalog)

	_, err = app.Registry.ExecuteTool(ctx, "query_sql_db", "CREATE TABLE cities (name TEXT)")
	require.NoError(t, err)
	_, err = app.Registry.ExecuteTool(ctx, "query_sql_db", "INSERT INTO cities VALUES ('Amsterdam'), ('Rotterdam'), ('Utrecht')")
	require.NoError(t, err)

	out, err := app.Registry.ExecuteTool(ctx, "similar_value", "utrech|name|cities")
	require.NoError(t, err)
	assert.Equal(t, "Utrecht", out)

	entries, err := app.Catalog.ListIndexes(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cities", entries[0].View)
	assert.Equal(t, "name", entries[0].Column)
	assert.Equal(t, 3, entries[0].Entries)
	assert.Equal(t, "local/trigram-128", entries[0].Embedder)
}

func TestSetup_Errors(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.Engine.Driver = "spark-connect"
	_, err := Setup(ctx, cfg)
	assert.ErrorIs(t, err, engine.ErrMissingDependency)

	cfg = testConfig(t)
	cfg.Engine.ResultFormat = "csv"
	_, err = Setup(ctx, cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Embedding.Provider = "openai"
	_, err = Setup(ctx, cfg)
	assert.Error(t, err)
}

func TestCatalogDSN(t *testing.T) {
	assert.Equal(t, "", CatalogDSN(config.VectorStoreConfig{}))
	assert.Equal(t, filepath.Join("/idx", "catalog.db"), CatalogDSN(config.VectorStoreConfig{Dir: "/idx", CatalogDriver: "sqlite"}))
	assert.Equal(t, "", CatalogDSN(config.VectorStoreConfig{Dir: "/idx", LegacyDirBranch: true}))
	assert.Equal(t, "", CatalogDSN(config.VectorStoreConfig{Dir: "/idx", CatalogDriver: "postgres"}))
	assert.Equal(t, "postgres://db/catalog", CatalogDSN(config.VectorStoreConfig{Dir: "/idx", CatalogDriver: "postgres", CatalogDSN: "postgres://db/catalog"}))
}
