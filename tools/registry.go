package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	logcontext "github.com/va6996/querytools/context"
	"github.com/va6996/querytools/log"
	"github.com/va6996/querytools/metrics"
)

// ToolExecutor is the function signature for executing a tool
type ToolExecutor func(ctx context.Context, input string) (string, error)

// ToolInput is the argument schema every tool exposes to genkit
type ToolInput struct {
	Input string `json:"input" description:"The tool input, formatted as the tool description asks"`
}

// Registry manages the registration of agent tools
type Registry struct {
	tools     []ai.Tool
	executors map[string]ToolExecutor
	byName    map[string]Tool
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools:     make([]ai.Tool, 0),
		executors: make(map[string]ToolExecutor),
		byName:    make(map[string]Tool),
	}
}

// Register adds a genkit tool to the registry with its executor
func (r *Registry) Register(tool ai.Tool, executor ToolExecutor) {
	r.tools = append(r.tools, tool)
	r.executors[tool.Definition().Name] = executor
}

// Add registers t. When gk is set, t is also defined as a genkit tool so a
// genkit model can call it.
func (r *Registry) Add(gk *genkit.Genkit, t Tool) error {
	name := t.Name()
	if _, exists := r.executors[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}

	r.byName[name] = t
	if gk == nil {
		r.executors[name] = t.Invoke
		return nil
	}

	r.Register(genkit.DefineTool(gk, name, t.Description(),
		func(ctx *ai.ToolContext, input *ToolInput) (string, error) {
			if input == nil {
				input = &ToolInput{}
			}
			return r.ExecuteTool(ctx, name, input.Input)
		},
	), t.Invoke)
	return nil
}

// GetTools returns all tools defined with genkit
func (r *Registry) GetTools() []ai.Tool {
	return r.tools
}

// List returns every registered tool ordered by name
func (r *Registry) List() []Tool {
	list := make([]Tool, 0, len(r.byName))
	for _, t := range r.byName {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// Get returns the tool registered under name
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// ExecuteTool runs a registered tool by name
func (r *Registry) ExecuteTool(ctx context.Context, name string, input string) (string, error) {
	executor, ok := r.executors[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	ctx, _ = logcontext.EnsureInvocationID(ctx)
	log.Debugf(ctx, "Invoking %s with input: %s", name, input)

	start := time.Now()
	output, err := executor(ctx, input)
	status := metrics.StatusOK
	switch {
	case err != nil:
		status = metrics.StatusError
		log.Warnf(ctx, "%s failed: %v", name, err)
	case strings.HasPrefix(output, "Error: "):
		status = metrics.StatusEngineError
		log.Debugf(ctx, "%s reported: %s", name, output)
	}
	metrics.RecordToolInvocation(name, status, time.Since(start))

	return output, err
}
