// Package sqlengine provides the tools that run agent-written SQL against
// the configured engine.
package sqlengine

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/genkit"
	"github.com/va6996/querytools/engine"
	"github.com/va6996/querytools/log"
	toolspkg "github.com/va6996/querytools/tools"
)

const (
	QueryToolName      = "query_sql_db"
	ValidationToolName = "query_validation"
)

// report turns an engine failure into the string the agent sees. Anything
// else (cancellation, a missing driver) stays a Go error.
func report(ctx context.Context, tool string, err error) (string, error) {
	if engineErr, ok := engine.AsEngineError(err); ok {
		log.Debugf(ctx, "%s: engine rejected query: %v", tool, engineErr)
		return engine.Report(engineErr), nil
	}
	return "", err
}

// --- Query Tool ---

// QueryTool runs a query verbatim and returns its rows
type QueryTool struct {
	toolspkg.Sync
	engine engine.Engine
	format engine.Format
}

func NewQueryTool(e engine.Engine, format engine.Format) *QueryTool {
	if format == "" {
		format = engine.FormatTuples
	}
	return &QueryTool{engine: e, format: format}
}

func (t *QueryTool) Name() string {
	return QueryToolName
}

func (t *QueryTool) Description() string {
	return "Input to this tool is a detailed and correct SQL query, output is a result from the database. " +
		"If the query is not correct, an error message will be returned. " +
		"If an error is returned, rewrite the query, check the query, and try again."
}

// Invoke executes query. Zero rows yield "", engine failures yield "Error: <message>".
// Statements are not wrapped in a transaction, so DML and DDL take effect.
func (t *QueryTool) Invoke(ctx context.Context, query string) (string, error) {
	log.Debugf(ctx, "QueryTool executing: %s", query)

	if t.engine == nil {
		return "", fmt.Errorf("%w: no SQL engine configured", engine.ErrMissingDependency)
	}

	result, err := t.engine.Query(ctx, query)
	if err != nil {
		return report(ctx, QueryToolName, err)
	}

	out, err := result.Format(t.format)
	if err != nil {
		return "", err
	}
	log.Debugf(ctx, "QueryTool returned %d rows", len(result.Rows))
	return out, nil
}

// --- Validation Tool ---

// ValidationTool checks a query by executing it and discarding the rows
type ValidationTool struct {
	toolspkg.Sync
	engine engine.Engine
}

func NewValidationTool(e engine.Engine) *ValidationTool {
	return &ValidationTool{engine: e}
}

func (t *ValidationTool) Name() string {
	return ValidationToolName
}

func (t *ValidationTool) Description() string {
	return "Use this tool to double check if your query is correct before returning it. " +
		"Always use this tool before returning a query as answer! " +
		"The query may be wrapped in a ```sql fenced block. " +
		"Note that the query is executed, so statements that modify data will do so."
}

// Invoke extracts the first fenced block of input, runs it and returns
// "OK" or "Error: <message>"
func (t *ValidationTool) Invoke(ctx context.Context, input string) (string, error) {
	query := toolspkg.FirstCodeBlock(input)
	log.Debugf(ctx, "ValidationTool checking: %s", query)

	if t.engine == nil {
		return "", fmt.Errorf("%w: no SQL engine configured", engine.ErrMissingDependency)
	}

	if _, err := t.engine.Query(ctx, query); err != nil {
		return report(ctx, ValidationToolName, err)
	}
	return "OK", nil
}

// RegisterTools adds both tools to registry
func RegisterTools(gk *genkit.Genkit, registry *toolspkg.Registry, e engine.Engine, format engine.Format) error {
	if err := registry.Add(gk, NewQueryTool(e, format)); err != nil {
		return err
	}
	return registry.Add(gk, NewValidationTool(e))
}
