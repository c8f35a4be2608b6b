// pkg/dispatch/types.go
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"

	"github.com/arc-language/minishell/pkg/backend"
	"github.com/arc-language/minishell/pkg/translate"
)

// Request is a generic package operation
type Request struct {
	Verb backend.Verb
	// Query is the package name or search term. Empty for list and
	// update-all.
	Query string
	// Backend selects one backend explicitly. Empty uses the policy.
	Backend backend.ID
}

// Failure classifies why an invocation did not succeed
type Failure string

const (
	FailureNone     Failure = ""
	NonZeroExit     Failure = "non-zero exit"
	BackendNotFound Failure = "backend not found"
	SpawnFailed     Failure = "spawn failed"
	Timeout         Failure = "timed out"
	Canceled        Failure = "canceled"
	UnsupportedVerb Failure = "unsupported verb"
)

// FailureOf maps an invocation error onto its failure kind
func FailureOf(err error) Failure {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, context.Canceled):
		return Canceled
	case errors.Is(err, backend.ErrTimeout):
		return Timeout
	case errors.Is(err, backend.ErrBackendNotFound):
		return BackendNotFound
	case errors.Is(err, backend.ErrSpawnFailed):
		return SpawnFailed
	case errors.Is(err, backend.ErrUnsupportedVerb):
		return UnsupportedVerb
	default:
		return NonZeroExit
	}
}

// Result is the outcome of invoking one backend
type Result struct {
	Backend    *backend.Descriptor
	Invocation translate.Invocation
	// Query is what the backend was asked for after alias resolution
	Query string
	// Started is false when no process ran
	Started   bool
	ExitCode  int
	Stdout    string
	Stderr    string
	Succeeded bool
	// Matched is set for searches that succeeded and printed results
	Matched   bool
	Failure   Failure
	Err       error
	Duration  time.Duration
	Streamed  bool
	Truncated bool
}

// Satisfied reports whether the result counts as a success for verb
func (r Result) Satisfied(verb backend.Verb) bool {
	if verb == backend.Search {
		return r.Matched
	}
	return r.Succeeded
}

// Status is the overall state of an outcome
type Status int

const (
	AllSucceeded Status = iota
	PartialSuccess
	AllFailed
	NoBackendAvailable
)

func (s Status) String() string {
	switch s {
	case AllSucceeded:
		return "all succeeded"
	case PartialSuccess:
		return "partial success"
	case AllFailed:
		return "all failed"
	case NoBackendAvailable:
		return "no backend available"
	default:
		return "unknown"
	}
}

// Skip records a backend passed over without being invoked
type Skip struct {
	Backend *backend.Descriptor
	Reason  Failure
	Err     error
}

// Outcome aggregates every invocation made for one request
type Outcome struct {
	Request  Request
	Status   Status
	Results  []Result
	Skipped  []Skip
	Platform backend.Platform
	// Checked holds the platform candidates that were probed and
	// Missing the subset that did not resolve
	Checked backend.Set
	Missing backend.Set
	// Err is set when the request failed before any backend ran
	Err error
	// Single is set when exactly one backend was targeted
	Single bool
}

// ExitCode maps the outcome onto a process exit status. Single-backend
// requests propagate the tool's own code.
func (o *Outcome) ExitCode() int {
	switch {
	case o.Status == NoBackendAvailable:
		return 2
	case len(o.Results) == 0:
		if o.Status == AllSucceeded {
			return 0
		}
		return 1
	case o.Single && len(o.Results) == 1:
		r := o.Results[0]
		if !r.Started || r.ExitCode < 0 {
			return 1
		}
		if r.ExitCode == 0 && r.Err != nil {
			return 1
		}
		return r.ExitCode
	case o.Status == AllSucceeded:
		return 0
	default:
		return 1
	}
}

// Failed returns the results that did not satisfy the request
func (o *Outcome) Failed() []Result {
	return lo.Reject(o.Results, func(r Result, _ int) bool { return r.Satisfied(o.Request.Verb) })
}

func computeStatus(verb backend.Verb, results []Result) Status {
	if len(results) == 0 {
		return NoBackendAvailable
	}
	ok := lo.CountBy(results, func(r Result) bool { return r.Satisfied(verb) })
	switch ok {
	case len(results):
		return AllSucceeded
	case 0:
		return AllFailed
	default:
		return PartialSuccess
	}
}
