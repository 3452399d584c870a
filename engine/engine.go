// Package engine is the SQL engine collaborator used by the query tools.
//
// It is a thin layer over database/sql through sqlx: statements are sent
// verbatim, rows are collected as positional values, and any failure the
// driver reports is returned as an *EngineError so callers can tell engine
// failures apart from programming or deployment errors.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	// Drivers the engine can open by name
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Engine executes SQL statements and returns their rows
type Engine interface {
	// Query runs sql verbatim. Engine-side failures are reported as *EngineError.
	Query(ctx context.Context, sql string) (*Result, error)

	// Close releases the underlying connection pool
	Close() error
}

// Result holds the rows returned by one statement
type Result struct {
	Columns []string
	Rows    [][]interface{}
}

// Empty reports whether the statement produced no rows
func (r *Result) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// SQLEngine implements Engine on top of a shared sqlx connection pool
type SQLEngine struct {
	db     *sqlx.DB
	driver string
}

// Ensure SQLEngine satisfies Engine
var _ Engine = (*SQLEngine)(nil)

// Options tune the connection pool opened by Open
type Options struct {
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DriverAvailable reports whether a database/sql driver is registered under name
func DriverAvailable(name string) bool {
	return slices.Contains(sql.Drivers(), name)
}

// Open checks that driver is registered, opens a pool for dsn and pings it.
// A missing driver is reported as ErrMissingDependency.
func Open(ctx context.Context, driver, dsn string, opts Options) (*SQLEngine, error) {
	if !DriverAvailable(driver) {
		return nil, fmt.Errorf("%w: sql driver %q is not registered (available: %s)",
			ErrMissingDependency, driver, strings.Join(sql.Drivers(), ", "))
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s engine: %w", driver, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s engine: %w", driver, err)
	}

	return &SQLEngine{db: db, driver: driver}, nil
}

// New wraps an already opened connection pool. The pool is shared; Close
// closes it for every user.
func New(db *sqlx.DB) *SQLEngine {
	return &SQLEngine{db: db, driver: db.DriverName()}
}

// Driver returns the database/sql driver name
func (e *SQLEngine) Driver() string {
	return e.driver
}

// DB exposes the pool for callers that need to share it
func (e *SQLEngine) DB() *sqlx.DB {
	return e.db
}

// Query runs the statement and collects every row. No transaction is opened
// around it, so DML and DDL take effect immediately.
func (e *SQLEngine) Query(ctx context.Context, query string) (*Result, error) {
	rows, err := e.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, e.wrap(ctx, query, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, e.wrap(ctx, query, err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, e.wrap(ctx, query, err)
		}
		for i, v := range values {
			// Text columns from some drivers arrive as raw bytes
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, e.wrap(ctx, query, err)
	}

	return result, nil
}

// Close closes the connection pool
func (e *SQLEngine) Close() error {
	return e.db.Close()
}

// wrap classifies err. Cancellation belongs to the caller and is returned
// as is; everything else came from the engine.
func (e *SQLEngine) wrap(ctx context.Context, query string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &EngineError{Driver: e.driver, Query: query, Err: err}
}
