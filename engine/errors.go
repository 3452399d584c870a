package engine

import (
	"errors"
)

// ErrMissingDependency is returned when the configured SQL driver is not
// compiled into the binary. It is a deployment problem, not something a
// caller can retry.
var ErrMissingDependency = errors.New("missing dependency")

// EngineError is a failure reported by the SQL engine while planning or
// running a statement
type EngineError struct {
	Driver string
	Query  string
	Err    error
}

// Error returns the engine's own message so it can be shown to the agent unchanged
func (e *EngineError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the driver error
func (e *EngineError) Unwrap() error {
	return e.Err
}

// AsEngineError reports whether err is, or wraps, an *EngineError
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}

// Report renders an engine failure the way the tools hand it back to the agent
func Report(err error) string {
	return "Error: " + err.Error()
}
