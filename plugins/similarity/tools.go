// Package similarity provides the similar_value tool, which maps a fuzzy
// keyword onto the closest real value of a column.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/firebase/genkit/go/genkit"
	"github.com/va6996/querytools/engine"
	"github.com/va6996/querytools/log"
	toolspkg "github.com/va6996/querytools/tools"
	"github.com/va6996/querytools/vectorsearch"
)

const ToolName = "similar_value"

// Finder is the part of vectorsearch.Searcher the tool needs
type Finder interface {
	Find(ctx context.Context, req vectorsearch.Request) (string, error)
}

// Options controls where indexes are kept
type Options struct {
	// Dir holds one persisted index per view and column. Empty means every
	// lookup builds a throwaway index.
	Dir string

	// LegacyDirBranch reproduces the inverted branch of the reference
	// implementation: with Dir set no values are fetched and no path is
	// passed, so every lookup fails with ErrInvalidInput.
	LegacyDirBranch bool
}

// SimilarValueTool finds the value of a column closest to a keyword
type SimilarValueTool struct {
	toolspkg.Sync
	engine engine.Engine
	finder Finder
	opts   Options
}

func NewSimilarValueTool(e engine.Engine, finder Finder, opts Options) *SimilarValueTool {
	return &SimilarValueTool{engine: e, finder: finder, opts: opts}
}

func (t *SimilarValueTool) Name() string {
	return ToolName
}

func (t *SimilarValueTool) Description() string {
	return "This tool takes a string keyword and searches for the most similar value from a vector store with all " +
		"possible values from the desired column. " +
		"Input to this tool is a pipe-separated string in this format: keyword|column_name|temp_view_name. " +
		"The temp_view_name will be queried in the column_name using the most similar value to the keyword."
}

// Invoke parses "search_text|column_name|view_name" and returns the value of
// column_name in view_name nearest to search_text
func (t *SimilarValueTool) Invoke(ctx context.Context, input string) (string, error) {
	search, column, view, err := ParseInput(input)
	if err != nil {
		return "", err
	}
	log.Debugf(ctx, "SimilarValueTool looking up %q in %s.%s", search, view, column)

	if t.finder == nil {
		return "", fmt.Errorf("%w: no vector search configured", engine.ErrMissingDependency)
	}

	req := vectorsearch.Request{Query: search, View: view, Column: column}
	needValues := true

	switch {
	case t.opts.Dir == "":
		// throwaway index built from the current values
	case t.opts.LegacyDirBranch:
		needValues = false
	default:
		req.IndexPath = IndexPath(t.opts.Dir, view, column)
		needValues = !vectorsearch.IndexExists(req.IndexPath)
	}

	if needValues {
		values, err := t.distinctValues(ctx, column, view)
		if err != nil {
			if engineErr, ok := engine.AsEngineError(err); ok {
				return engine.Report(engineErr), nil
			}
			return "", err
		}
		req.Corpus = values
	}

	return t.finder.Find(ctx, req)
}

func (t *SimilarValueTool) distinctValues(ctx context.Context, column, view string) ([]string, error) {
	if t.engine == nil {
		return nil, fmt.Errorf("%w: no SQL engine configured", engine.ErrMissingDependency)
	}

	values, err := engine.DistinctValues(ctx, t.engine, column, view)
	if errors.Is(err, engine.ErrInvalidIdentifier) {
		return nil, fmt.Errorf("%w: %v", toolspkg.ErrInvalidInput, err)
	}
	return values, err
}

// ParseInput splits "search_text|column_name|view_name". Exactly three
// non-empty fields are required.
func ParseInput(input string) (search, column, view string, err error) {
	parts := strings.Split(input, "|")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("%w: expected search_text|column_name|view_name, got %d field(s)", toolspkg.ErrInvalidInput, len(parts))
	}

	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return "", "", "", fmt.Errorf("%w: field %d of %q is empty", toolspkg.ErrInvalidInput, i+1, input)
		}
	}
	return parts[0], parts[1], parts[2], nil
}

// IndexPath is where the index for view and column lives under dir.
// Bytes outside [A-Za-z0-9_.-] are written as %XX, as is a leading dot, so
// distinct names never share a file and none can leave dir.
func IndexPath(dir, view, column string) string {
	return filepath.Join(dir, pathComponent(view)+"_"+pathComponent(column))
}

func pathComponent(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if pathSafe(c) && !(i == 0 && c == '.') {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func pathSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '_' || c == '.' || c == '-'
}

// RegisterTools adds the tool to registry
func RegisterTools(gk *genkit.Genkit, registry *toolspkg.Registry, e engine.Engine, finder Finder, opts Options) error {
	return registry.Add(gk, NewSimilarValueTool(e, finder, opts))
}
