// errors.go
package minishell

import "github.com/arc-language/minishell/pkg/backend"

var (
	// ErrUnsupportedVerb indicates the backend has no equivalent for a verb
	ErrUnsupportedVerb = backend.ErrUnsupportedVerb

	// ErrBackendNotFound indicates the backend executable could not be resolved
	ErrBackendNotFound = backend.ErrBackendNotFound

	// ErrSpawnFailed indicates the OS refused to start the child process
	ErrSpawnFailed = backend.ErrSpawnFailed

	// ErrNoBackendAvailable indicates no usable package manager exists on the host
	ErrNoBackendAvailable = backend.ErrNoBackendAvailable

	// ErrTimeout indicates a backend invocation exceeded its time bound
	ErrTimeout = backend.ErrTimeout

	// ErrMissingQuery indicates the verb needs a package name or query
	ErrMissingQuery = backend.ErrMissingQuery

	// ErrUnknownBackend indicates a backend ID that no descriptor declares
	ErrUnknownBackend = backend.ErrUnknownBackend

	// ErrInvalidDescriptor indicates a descriptor failed validation
	ErrInvalidDescriptor = backend.ErrInvalidDescriptor
)

// Error wraps an error with the operation and backend that failed
type Error = backend.Error

// UnsupportedVerbError reports a verb a backend explicitly does not support
type UnsupportedVerbError = backend.UnsupportedVerbError
