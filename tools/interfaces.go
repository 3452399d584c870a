package tools

import "context"

// Tool is a single capability an agent can invoke with one string argument
type Tool interface {
	// Name returns the unique name of the tool (e.g. "query_sql_db")
	Name() string

	// Description tells the agent what the tool does and how to format input
	Description() string

	// Invoke runs the tool synchronously
	Invoke(ctx context.Context, input string) (string, error)

	// InvokeAsync is part of the agent contract but no tool supports it;
	// implementations return ErrUnsupportedOperation without doing any work
	InvokeAsync(ctx context.Context, input string) (<-chan Result, error)
}

// Result is what an asynchronous invocation would deliver
type Result struct {
	Output string
	Err    error
}

// Sync provides the InvokeAsync half of Tool for synchronous-only tools
type Sync struct{}

func (Sync) InvokeAsync(ctx context.Context, input string) (<-chan Result, error) {
	return nil, ErrUnsupportedOperation
}
