package tools

import "errors"

var (
	// ErrInvalidInput marks tool input that does not match the documented format
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedOperation is returned by every asynchronous invocation
	ErrUnsupportedOperation = errors.New("tool does not support async")

	// ErrToolNotFound is returned when the registry has no tool by that name
	ErrToolNotFound = errors.New("tool not found")
)
