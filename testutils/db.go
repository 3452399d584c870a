// Package testutils opens throwaway SQLite engines seeded with sample data
package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/va6996/querytools/engine"
)

// seed creates an employees table with a few duplicated and NULL values so
// distinct-value lookups have something to collapse
var seed = []string{
	`CREATE TABLE employees (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"name" TEXT,
		"department" TEXT,
		"salary" REAL,
		"active" BOOLEAN
	);`,
	`INSERT INTO employees (name, department, salary, active) VALUES
		('Alice', 'Engineering', 120000.5, 1),
		('Bob', 'Engineering', 95000, 1),
		('Carol', 'Marketing', 88000, 0),
		('Dave', 'Sales', 70000, 1),
		('Bob', 'Sales', 72000, 1),
		(NULL, 'Marketing', 50000, 0);`,
	`CREATE VIEW engineers AS SELECT name, salary FROM employees WHERE department = 'Engineering';`,
}

// SetupTestEngine opens a file-backed SQLite engine under t.TempDir() and
// seeds it. The engine is closed when the test ends.
func SetupTestEngine(t *testing.T) *engine.SQLEngine {
	t.Helper()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "warehouse.db")
	eng, err := engine.Open(ctx, "sqlite3", path, engine.Options{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("failed to open test engine: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	for _, stmt := range seed {
		if _, err := eng.Query(ctx, stmt); err != nil {
			t.Fatalf("failed to seed test engine: %v", err)
		}
	}
	return eng
}
