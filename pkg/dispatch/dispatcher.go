// pkg/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/arc-language/minishell/pkg/backend"
	"github.com/arc-language/minishell/pkg/platform"
	"github.com/arc-language/minishell/pkg/runner"
	"github.com/arc-language/minishell/pkg/translate"
)

// maxParallel bounds concurrent backends during a parallel list
const maxParallel = 4

// Detector provides the (cached) set of available backends
type Detector interface {
	Inventory() *platform.Inventory
}

// Resolver maps a canonical package name to a backend-specific one
type Resolver interface {
	Resolve(name string, id backend.ID) (string, error)
}

// Options configure selection and invocation
type Options struct {
	// DefaultBackend is used for install and update when it is available
	DefaultBackend backend.ID
	// Parallel runs list fan-out concurrently. Output is captured only.
	Parallel bool
	// Translate supplies sudo policy and host lookups. Path and Platform
	// are filled in per invocation.
	Translate translate.Options
	Run       runner.Options
	Registry  Resolver
	Logger    logrus.FieldLogger
}

// Dispatcher turns generic requests into backend invocations
type Dispatcher struct {
	detector Detector
	runner   runner.Runner
	opts     Options
	logger   logrus.FieldLogger
}

// New creates a dispatcher
func New(detector Detector, r runner.Runner, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Dispatcher{
		detector: detector,
		runner:   r,
		opts:     opts,
		logger:   logger,
	}
}

// Dispatch selects backends for the request and runs them.
//
//   - list runs every available backend
//   - install and update run the first eligible backend only and never
//     fall through on failure
//   - search walks eligible backends until one succeeds with matches
//
// The returned outcome is never nil.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) *Outcome {
	inv := d.detector.Inventory()
	out := &Outcome{
		Request:  req,
		Platform: inv.Platform,
		Checked:  inv.Checked,
		Missing:  inv.Missing(),
	}
	log := d.logger.WithField("verb", req.Verb)

	if req.Query == "" && (req.Verb == backend.Install || req.Verb == backend.Search) {
		out.Status = AllFailed
		out.Err = &backend.Error{Op: string(req.Verb), Err: backend.ErrMissingQuery}
		return out
	}

	explicit := req.Backend
	if explicit == "" && d.opts.DefaultBackend != "" && (req.Verb == backend.Install || req.Verb == backend.Update) {
		if _, ok := inv.Lookup(d.opts.DefaultBackend); ok {
			explicit = d.opts.DefaultBackend
		} else {
			log.Warnf("default backend %s is not available, using detection order", d.opts.DefaultBackend)
		}
	}
	out.Single = explicit != "" || req.Verb == backend.Install || req.Verb == backend.Update

	eligible, unsupported, err := platform.Select(inv, req.Verb, explicit)
	for _, desc := range unsupported {
		out.Skipped = append(out.Skipped, Skip{
			Backend: desc,
			Reason:  UnsupportedVerb,
			Err:     &backend.UnsupportedVerbError{Backend: desc.ID, Verb: req.Verb},
		})
	}
	if err != nil {
		return d.selectFailed(out, inv, explicit, err)
	}
	if len(eligible) == 0 {
		out.Status = NoBackendAvailable
		out.Err = backend.ErrNoBackendAvailable
		log.Debug("no eligible backend")
		return out
	}

	switch {
	case req.Verb == backend.List:
		out.Results = d.fanOut(ctx, req, eligible, inv)
	case req.Verb == backend.Search && explicit == "":
		out.Results = d.searchAll(ctx, req, eligible, inv)
	default:
		out.Results = []Result{d.invoke(ctx, req, eligible[0], inv, true)}
	}

	out.Status = computeStatus(req.Verb, out.Results)
	log.WithField("status", out.Status).Debug("dispatch finished")
	return out
}

func (d *Dispatcher) selectFailed(out *Outcome, inv *platform.Inventory, explicit backend.ID, err error) *Outcome {
	out.Err = err
	switch {
	case errors.Is(err, backend.ErrBackendNotFound):
		// known for this platform but its executable is missing
		desc, _ := inv.Checked.Lookup(explicit)
		out.Results = []Result{{Backend: desc, ExitCode: -1, Failure: BackendNotFound, Err: err}}
		out.Status = AllFailed
	case errors.Is(err, backend.ErrNoBackendAvailable):
		out.Status = NoBackendAvailable
	default:
		out.Status = AllFailed
	}
	return out
}

// fanOut runs every backend and keeps results in priority order
func (d *Dispatcher) fanOut(ctx context.Context, req Request, eligible backend.Set, inv *platform.Inventory) []Result {
	results := make([]Result, len(eligible))

	if !d.opts.Parallel || len(eligible) < 2 {
		for i, desc := range eligible {
			results[i] = d.invoke(ctx, req, desc, inv, true)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(maxParallel)
	for i, desc := range eligible {
		g.Go(func() error {
			results[i] = d.invoke(ctx, req, desc, inv, false)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// searchAll stops at the first backend that succeeds with matches
func (d *Dispatcher) searchAll(ctx context.Context, req Request, eligible backend.Set, inv *platform.Inventory) []Result {
	var results []Result
	for _, desc := range eligible {
		r := d.invoke(ctx, req, desc, inv, true)
		results = append(results, r)
		if r.Matched || r.Failure == Canceled {
			break
		}
		d.logger.WithField("backend", desc.ID).Debug("no matches, trying next backend")
	}
	return results
}

// invoke translates and runs one backend. interactive controls
// whether output is streamed and stdin passed through.
func (d *Dispatcher) invoke(ctx context.Context, req Request, desc *backend.Descriptor, inv *platform.Inventory, interactive bool) Result {
	res := Result{Backend: desc, ExitCode: -1, Query: d.alias(req.Query, desc.ID)}
	log := d.logger.WithFields(logrus.Fields{"verb": req.Verb, "backend": desc.ID})

	topts := d.opts.Translate
	topts.Path = inv.Path(desc.ID)
	topts.Platform = inv.Platform
	tinv, err := translate.Translate(req.Verb, res.Query, desc, topts)
	if err != nil {
		res.Err = err
		res.Failure = FailureOf(err)
		return res
	}
	res.Invocation = tinv

	ropts := d.opts.Run
	if !interactive {
		ropts.Stream = false
		ropts.Stdin = nil
	}

	log.WithField("argv", tinv.Argv).Debug("invoking backend")
	rr := d.runner.Run(ctx, tinv, ropts)

	res.Started = rr.Started
	res.ExitCode = rr.ExitCode
	res.Stdout = rr.Stdout
	res.Stderr = rr.Stderr
	res.Duration = rr.Duration
	res.Streamed = rr.Streamed
	res.Truncated = rr.Truncated
	res.Err = rr.Err
	res.Succeeded = rr.Err == nil && rr.ExitCode == 0
	res.Failure = FailureOf(rr.Err)
	if req.Verb == backend.Search {
		res.Matched = res.Succeeded && desc.HasMatches(rr.Stdout)
	}

	log.WithFields(logrus.Fields{"exit_code": res.ExitCode, "duration": res.Duration}).Debug("backend finished")
	return res
}

// alias returns the registry name for query on id, or query itself
func (d *Dispatcher) alias(query string, id backend.ID) string {
	if query == "" || d.opts.Registry == nil {
		return query
	}
	name, err := d.opts.Registry.Resolve(query, id)
	if err != nil || name == "" {
		return query
	}
	d.logger.WithField("backend", id).Debugf("resolved %s to %s", query, name)
	return name
}
