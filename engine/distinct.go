package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentifier is returned for empty column or relation names
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Quoter quotes identifiers for one SQL dialect. The value is the quote
// character; an embedded quote character is doubled.
type Quoter byte

const (
	// ANSIQuoter uses double quotes (PostgreSQL and most engines)
	ANSIQuoter Quoter = '"'
	// BacktickQuoter uses backticks. SQLite reads a double-quoted name that
	// matches no column as a string literal; a backticked one is always an
	// identifier.
	BacktickQuoter Quoter = '`'
)

// QuoterFor picks the quoting style for a database/sql driver name
func QuoterFor(driver string) Quoter {
	switch driver {
	case "sqlite3", "sqlite":
		return BacktickQuoter
	default:
		return ANSIQuoter
	}
}

// Ident quotes a single identifier. Surrounding backticks or double quotes
// supplied by the caller are removed first.
func (q Quoter) Ident(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) >= 2 {
		first, last := name[0], name[len(name)-1]
		if first == last && (first == '`' || first == '"') {
			name = name[1 : len(name)-1]
		}
	}
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	quote := string(rune(q))
	return quote + strings.ReplaceAll(name, quote, quote+quote) + quote, nil
}

// Qualified quotes a possibly schema-qualified relation name part by part:
// db.view becomes "db"."view"
func (q Quoter) Qualified(name string) (string, error) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	quoted := make([]string, 0, len(parts))
	for _, part := range parts {
		p, err := q.Ident(part)
		if err != nil {
			return "", fmt.Errorf("%w in %q", err, name)
		}
		quoted = append(quoted, p)
	}
	return strings.Join(quoted, "."), nil
}

// DistinctQuery builds SELECT DISTINCT for one column of a relation with
// both names quoted
func (q Quoter) DistinctQuery(column, relation string) (string, error) {
	col, err := q.Ident(column)
	if err != nil {
		return "", err
	}
	rel, err := q.Qualified(relation)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s", col, rel), nil
}

// Quoter returns the identifier quoting style of the engine's driver
func (e *SQLEngine) Quoter() Quoter {
	return QuoterFor(e.driver)
}

// quoterOf uses the engine's own quoting when it exposes one
func quoterOf(e Engine) Quoter {
	if withQuoter, ok := e.(interface{ Quoter() Quoter }); ok {
		return withQuoter.Quoter()
	}
	return ANSIQuoter
}

// DistinctValues returns the distinct non-NULL values of column in relation,
// rendered as text, in the order the engine returns them
func DistinctValues(ctx context.Context, e Engine, column, relation string) ([]string, error) {
	query, err := quoterOf(e).DistinctQuery(column, relation)
	if err != nil {
		return nil, err
	}

	result, err := e.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) == 0 || row[0] == nil {
			continue
		}
		values = append(values, ValueString(row[0]))
	}
	return values, nil
}
