// Package vectorsearch finds the corpus value closest to a query string by
// embedding both into a sqvect store and taking the top cosine match.
package vectorsearch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/liliang-cn/sqvect/v2/pkg/core"
	"github.com/liliang-cn/sqvect/v2/pkg/sqvect"
	"github.com/va6996/querytools/embedding"
	"github.com/va6996/querytools/log"
	"github.com/va6996/querytools/metrics"
	"github.com/va6996/querytools/orm"
	"github.com/va6996/querytools/tools"
)

// ErrInvalidInput is returned when there is neither a corpus nor an
// existing index to search
var ErrInvalidInput = tools.ErrInvalidInput

// Catalog is the bookkeeping the searcher updates on every build and load
type Catalog interface {
	RecordBuild(ctx context.Context, entry *orm.IndexEntry) error
	Touch(ctx context.Context, path string) (*orm.IndexEntry, error)
}

// Request is a single similarity lookup. View and Column only label the
// catalog entry of a persisted index.
type Request struct {
	Corpus    []string
	IndexPath string
	Query     string
	View      string
	Column    string
}

// Searcher embeds corpora and queries with one embedder
type Searcher struct {
	embedder embedding.Embedder
	catalog  Catalog
}

// Option configures a Searcher
type Option func(*Searcher)

// WithCatalog records index builds and loads in c
func WithCatalog(c Catalog) Option {
	return func(s *Searcher) {
		s.catalog = c
	}
}

// NewSearcher creates a Searcher backed by embedder
func NewSearcher(embedder embedding.Embedder, opts ...Option) *Searcher {
	s := &Searcher{embedder: embedder}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embedder returns the embedder used for corpora and queries
func (s *Searcher) Embedder() embedding.Embedder {
	return s.embedder
}

// FindMostSimilar returns the corpus value nearest to queryText.
// With an indexPath that already exists the corpus is ignored and the
// stored index is searched. With an indexPath that does not exist the
// corpus is embedded and written there. With no indexPath the index lives
// only for this call.
func (s *Searcher) FindMostSimilar(ctx context.Context, corpus []string, indexPath string, queryText string) (string, error) {
	return s.Find(ctx, Request{Corpus: corpus, IndexPath: indexPath, Query: queryText})
}

// Find is FindMostSimilar with catalog labels
func (s *Searcher) Find(ctx context.Context, req Request) (string, error) {
	if req.IndexPath != "" && IndexExists(req.IndexPath) {
		return s.searchExisting(ctx, req)
	}

	corpus := compact(req.Corpus)
	if len(corpus) == 0 {
		return "", fmt.Errorf("%w: empty corpus and no existing index", ErrInvalidInput)
	}

	if req.IndexPath == "" {
		return s.searchEphemeral(ctx, corpus, req.Query)
	}
	return s.buildAndSearch(ctx, corpus, req)
}

func (s *Searcher) searchExisting(ctx context.Context, req Request) (string, error) {
	log.Debugf(ctx, "Loading similarity index %s", req.IndexPath)

	db, err := s.open(req.IndexPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	metrics.RecordIndexOperation(metrics.IndexLoad, 0)
	if s.catalog != nil {
		entry, err := s.catalog.Touch(ctx, req.IndexPath)
		if err != nil {
			log.Warnf(ctx, "Failed to update catalog for %s: %v", req.IndexPath, err)
		} else if entry != nil && entry.Embedder != s.embedder.Name() {
			log.Warnf(ctx, "Index %s was built with %s, searching with %s", req.IndexPath, entry.Embedder, s.embedder.Name())
		}
	}

	return s.nearest(ctx, db, req.Query)
}

func (s *Searcher) searchEphemeral(ctx context.Context, corpus []string, query string) (string, error) {
	// sqvect pools connections, so ":memory:" would give each one its own
	// empty database; a scratch file keeps them consistent
	dir, err := os.MkdirTemp("", "querytools-index-*")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch index dir: %w", err)
	}
	defer os.RemoveAll(dir)

	db, err := s.open(filepath.Join(dir, "index.db"))
	if err != nil {
		return "", err
	}
	defer db.Close()

	if err := s.populate(ctx, db, corpus); err != nil {
		return "", err
	}
	metrics.RecordIndexOperation(metrics.IndexEphemeral, len(corpus))

	return s.nearest(ctx, db, query)
}

func (s *Searcher) buildAndSearch(ctx context.Context, corpus []string, req Request) (string, error) {
	log.Infof(ctx, "Building similarity index %s from %d values", req.IndexPath, len(corpus))

	if err := os.MkdirAll(filepath.Dir(req.IndexPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create index dir: %w", err)
	}

	db, err := s.open(req.IndexPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	if err := s.populate(ctx, db, corpus); err != nil {
		// A half-written index would be loaded as authoritative next time
		db.Close()
		removeIndex(req.IndexPath)
		return "", err
	}
	metrics.RecordIndexOperation(metrics.IndexBuild, len(corpus))

	if s.catalog != nil {
		entry := &orm.IndexEntry{
			Path:     req.IndexPath,
			View:     req.View,
			Column:   req.Column,
			Entries:  len(corpus),
			Embedder: s.embedder.Name(),
		}
		if err := s.catalog.RecordBuild(ctx, entry); err != nil {
			log.Warnf(ctx, "Failed to record index %s in catalog: %v", req.IndexPath, err)
		}
	}

	return s.nearest(ctx, db, req.Query)
}

func (s *Searcher) open(path string) (*sqvect.DB, error) {
	db, err := sqvect.Open(sqvect.Config{
		Path:         path,
		Dimensions:   s.embedder.Dim(),
		SimilarityFn: core.CosineSimilarity,
		IndexType:    core.IndexTypeFlat,
	}, sqvect.WithEmbedder(s.embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", path, err)
	}
	return db, nil
}

func (s *Searcher) populate(ctx context.Context, db *sqvect.DB, corpus []string) error {
	vectors, err := s.embedder.EmbedBatch(ctx, corpus)
	if err != nil {
		return fmt.Errorf("failed to embed corpus: %w", err)
	}

	embs := make([]*core.Embedding, len(corpus))
	for i, value := range corpus {
		embs[i] = &core.Embedding{
			ID:      strconv.Itoa(i),
			Vector:  vectors[i],
			Content: value,
		}
	}

	if err := db.Vector().UpsertBatch(ctx, embs); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

func (s *Searcher) nearest(ctx context.Context, db *sqvect.DB, query string) (string, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := db.Vector().Search(ctx, vec, core.SearchOptions{TopK: 1})
	if err != nil {
		return "", fmt.Errorf("similarity search failed: %w", err)
	}
	if len(results) == 0 {
		return "", errors.New("similarity index holds no values")
	}

	log.Debugf(ctx, "Nearest value to %q is %q (score %.4f)", query, results[0].Content, results[0].Score)
	return results[0].Content, nil
}

// IndexExists reports whether a persisted index is present at path
func IndexExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// compact drops empty strings and duplicates, keeping first occurrences
func compact(corpus []string) []string {
	seen := make(map[string]bool, len(corpus))
	out := make([]string, 0, len(corpus))
	for _, v := range corpus {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func removeIndex(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		os.Remove(p)
	}
}
