package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format selects how a Result is rendered for the agent
type Format string

const (
	// FormatTuples renders rows as a list of tuples: [('Alice', 30), ('Bob', 25)]
	FormatTuples Format = "tuples"
	// FormatJSON renders rows as a JSON array of column->value objects
	FormatJSON Format = "json"
)

// ParseFormat validates a configured format name. Empty means FormatTuples.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatTuples:
		return FormatTuples, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown result format %q (want %q or %q)", name, FormatTuples, FormatJSON)
	}
}

// Format renders the result. A result without rows is always the empty string.
func (r *Result) Format(f Format) (string, error) {
	if r.Empty() {
		return "", nil
	}

	switch f {
	case FormatJSON:
		objects := make([]map[string]interface{}, 0, len(r.Rows))
		for _, row := range r.Rows {
			obj := make(map[string]interface{}, len(row))
			for i, v := range row {
				if i < len(r.Columns) {
					obj[r.Columns[i]] = v
				}
			}
			objects = append(objects, obj)
		}
		b, err := json.Marshal(objects)
		if err != nil {
			return "", fmt.Errorf("failed to marshal rows: %w", err)
		}
		return string(b), nil
	default:
		var b strings.Builder
		b.WriteByte('[')
		for i, row := range r.Rows {
			if i > 0 {
				b.WriteString(", ")
			}
			writeTuple(&b, row)
		}
		b.WriteByte(']')
		return b.String(), nil
	}
}

func writeTuple(b *strings.Builder, row []interface{}) {
	b.WriteByte('(')
	for i, v := range row {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(literal(v))
	}
	// one-element tuples keep their trailing comma
	if len(row) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
}

// literal renders a scanned value as a tuple element
func literal(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case string:
		return quote(val)
	case time.Time:
		return quote(val.Format(time.RFC3339Nano))
	case float32:
		return floatLiteral(float64(val), 32)
	case float64:
		return floatLiteral(val, 64)
	default:
		return fmt.Sprint(val)
	}
}

func floatLiteral(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

// quote uses single quotes unless the value holds a single quote and no
// double quote, in which case double quotes avoid escaping
func quote(s string) string {
	q := "'"
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		q = `"`
	}
	var b strings.Builder
	b.WriteString(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case string(r) == q:
			b.WriteString(`\` + q)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(q)
	return b.String()
}

// ValueString renders a scanned value as plain text, without quoting.
// It is used when column values become search candidates.
func ValueString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprint(val)
	}
}
