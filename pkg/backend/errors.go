// pkg/backend/errors.go
package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedVerb indicates the backend has no equivalent for a verb
	ErrUnsupportedVerb = errors.New("unsupported verb")

	// ErrBackendNotFound indicates the backend executable could not be resolved
	ErrBackendNotFound = errors.New("backend executable not found")

	// ErrSpawnFailed indicates the OS refused to start the child process
	ErrSpawnFailed = errors.New("process spawn failed")

	// ErrNoBackendAvailable indicates no usable package manager exists on the host
	ErrNoBackendAvailable = errors.New("no package manager available")

	// ErrTimeout indicates a backend invocation exceeded its time bound
	ErrTimeout = errors.New("timed out")

	// ErrMissingQuery indicates the verb needs a package name or query
	ErrMissingQuery = errors.New("package name or query is required")

	// ErrUnknownBackend indicates a backend ID that no descriptor declares
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrInvalidDescriptor indicates a descriptor failed validation
	ErrInvalidDescriptor = errors.New("invalid backend descriptor")
)

// UnsupportedVerbError reports a verb the backend explicitly does not support
type UnsupportedVerbError struct {
	Backend ID
	Verb    Verb
}

func (e *UnsupportedVerbError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Backend, e.Verb)
}

// Unwrap lets callers match with errors.Is(err, ErrUnsupportedVerb)
func (e *UnsupportedVerbError) Unwrap() error {
	return ErrUnsupportedVerb
}

// Error wraps an error with the operation and backend it happened in
type Error struct {
	Op      string // Operation that failed
	Backend ID     // Backend if applicable
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Backend, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
