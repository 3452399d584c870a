// Package context tags a tool call with an invocation ID. The registry and
// the RPC server assign one per call; log lines and metrics emitted while the
// call runs read it back so everything one call did can be grouped.
package context

import (
	stdctx "context"

	"github.com/google/uuid"
)

type invocationKey struct{}

// NewInvocationID returns a random UUID for a new tool call
func NewInvocationID() string {
	return uuid.New().String()
}

// WithInvocationID tags ctx as belonging to the call id
func WithInvocationID(parent stdctx.Context, id string) stdctx.Context {
	return stdctx.WithValue(parent, invocationKey{}, id)
}

// InvocationIDFromContext returns the call ctx belongs to, or "" outside a
// tool call. A nil ctx is allowed.
func InvocationIDFromContext(ctx stdctx.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(invocationKey{}).(string)
	return id
}

// EnsureInvocationID starts a call on ctx unless one is already running.
// A tool invoked from inside another call (the server handing a request to
// the registry) keeps the outer ID.
func EnsureInvocationID(ctx stdctx.Context) (stdctx.Context, string) {
	if id := InvocationIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := NewInvocationID()
	return WithInvocationID(ctx, id), id
}
