package sqlengine

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/querytools/engine"
	"github.com/va6996/querytools/testutils"
	toolspkg "github.com/va6996/querytools/tools"
)

func TestQueryTool_Invoke(t *testing.T) {
	ctx := context.Background()
	tool := NewQueryTool(testutils.SetupTestEngine(t), "")

	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "Rows",
			query:    "SELECT name, salary FROM employees WHERE department = 'Engineering' ORDER BY id",
			expected: "[('Alice', 120000.5), ('Bob', 95000.0)]",
		},
		{
			name:     "Single column",
			query:    "SELECT name FROM employees WHERE department = 'Sales' ORDER BY id",
			expected: "[('Dave',), ('Bob',)]",
		},
		{
			name:     "NULL value",
			query:    "SELECT name FROM employees WHERE name IS NULL",
			expected: "[(None,)]",
		},
		{
			name:     "No rows",
			query:    "SELECT name FROM employees WHERE department = 'Legal'",
			expected: "",
		},
		{
			name:     "Syntax error",
			query:    "SELEC name FROM employees",
			expected: `Error: near "SELEC": syntax error`,
		},
		{
			name:     "Unknown table",
			query:    "SELECT * FROM missing",
			expected: "Error: no such table: missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tool.Invoke(ctx, tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestQueryTool_JSONFormat(t *testing.T) {
	tool := NewQueryTool(testutils.SetupTestEngine(t), engine.FormatJSON)

	out, err := tool.Invoke(context.Background(), "SELECT name, salary FROM engineers ORDER BY salary DESC")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Alice","salary":120000.5},{"name":"Bob","salary":95000}]`, out)
}

func TestQueryTool_MutationIsNotRolledBack(t *testing.T) {
	ctx := context.Background()
	tool := NewQueryTool(testutils.SetupTestEngine(t), "")

	out, err := tool.Invoke(ctx, "DELETE FROM employees WHERE department = 'Sales'")
	require.NoError(t, err)
	assert.Equal(t, "", out)

	out, err = tool.Invoke(ctx, "SELECT COUNT(*) FROM employees WHERE department = 'Sales'")
	require.NoError(t, err)
	assert.Equal(t, "[(0,)]", out)
}

func TestQueryTool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewQueryTool(testutils.SetupTestEngine(t), "").Invoke(ctx, "SELECT 1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueryTool_NoEngine(t *testing.T) {
	_, err := NewQueryTool(nil, "").Invoke(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, engine.ErrMissingDependency)
}

func TestValidationTool_Invoke(t *testing.T) {
	ctx := context.Background()
	tool := NewValidationTool(testutils.SetupTestEngine(t))

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Fenced", "```sql\nSELECT name FROM employees\n```", "OK"},
		{"Fenced with prose", "Here is the query:\n```sql\nSELECT COUNT(*) FROM engineers\n```\nIt counts engineers.", "OK"},
		{"Plain", "SELECT 1", "OK"},
		{"Empty result", "```sql\nSELECT name FROM employees WHERE 1 = 0\n```", "OK"},
		{"Bad column", "```sql\nSELECT nme FROM employees\n```", "Error: no such column: nme"},
		{"First block only", "```sql\nSELECT 1\n```\n```sql\nSELEC 2\n```", "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tool.Invoke(ctx, tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestValidationTool_ExecutesStatement(t *testing.T) {
	ctx := context.Background()
	eng := testutils.SetupTestEngine(t)

	out, err := NewValidationTool(eng).Invoke(ctx, "```sql\nUPDATE employees SET department = 'Legal' WHERE name = 'Dave'\n```")
	require.NoError(t, err)
	assert.Equal(t, "OK", out)

	res, err := eng.Query(ctx, "SELECT department FROM employees WHERE name = 'Dave'")
	require.NoError(t, err)
	assert.Equal(t, "Legal", res.Rows[0][0])
}

func TestInvokeAsync(t *testing.T) {
	ctx := context.Background()
	eng := testutils.SetupTestEngine(t)

	for _, tool := range []toolspkg.Tool{NewQueryTool(eng, ""), NewValidationTool(eng)} {
		ch, err := tool.InvokeAsync(ctx, "DELETE FROM employees")
		assert.Nil(t, ch)
		assert.ErrorIs(t, err, toolspkg.ErrUnsupportedOperation)
	}

	res, err := eng.Query(ctx, "SELECT COUNT(*) FROM employees")
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.Rows[0][0])
}

func TestRegisterTools(t *testing.T) {
	ctx := context.Background()
	gk := genkit.Init(ctx)
	registry := toolspkg.NewRegistry()

	require.NoError(t, RegisterTools(gk, registry, testutils.SetupTestEngine(t), engine.FormatTuples))

	assert.Len(t, registry.GetTools(), 2)
	out, err := registry.ExecuteTool(ctx, QueryToolName, "SELECT COUNT(DISTINCT department) FROM employees")
	require.NoError(t, err)
	assert.Equal(t, "[(3,)]", out)

	out, err = registry.ExecuteTool(ctx, ValidationToolName, "SELECT * FROM nowhere")
	require.NoError(t, err)
	assert.Equal(t, "Error: no such table: nowhere", out)
}
