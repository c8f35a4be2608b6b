// pkg/runner/runner.go
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arc-language/minishell/pkg/backend"
	"github.com/arc-language/minishell/pkg/translate"
)

const (
	// DefaultTimeout bounds a single backend invocation
	DefaultTimeout = 30 * time.Minute
	// DefaultMaxOutputBytes caps each captured stream
	DefaultMaxOutputBytes = 4 << 20
	// waitDelay bounds how long Wait blocks on pipes held open by
	// grandchildren after the process itself has exited or been killed
	waitDelay = 5 * time.Second
)

// Options control a single run
type Options struct {
	// Timeout of zero uses DefaultTimeout
	Timeout time.Duration
	// Stream tees output to Stdout/Stderr while it is captured
	Stream bool
	Stdout io.Writer
	Stderr io.Writer
	// Stdin is passed to the child when set, for interactive prompts
	Stdin io.Reader
	// MaxOutputBytes of zero uses DefaultMaxOutputBytes
	MaxOutputBytes int64
	// Dir and Env default to the current process's
	Dir string
	Env []string
}

// Result is the observable outcome of one child process
type Result struct {
	// Started is false when the process could not be spawned at all
	Started bool
	// ExitCode is -1 when the process never started or was killed
	ExitCode  int
	Stdout    string
	Stderr    string
	Truncated bool
	Streamed  bool
	Duration  time.Duration
	// Err is nil only for a zero exit. It wraps backend.ErrBackendNotFound,
	// backend.ErrSpawnFailed, backend.ErrTimeout, context.Canceled or an
	// *exec.ExitError.
	Err error
}

// Runner spawns backend processes
type Runner interface {
	Run(ctx context.Context, inv translate.Invocation, opts Options) Result
}

// ExecRunner runs invocations as real child processes
type ExecRunner struct {
	logger logrus.FieldLogger
}

// New creates an ExecRunner. A nil logger discards.
func New(logger logrus.FieldLogger) *ExecRunner {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &ExecRunner{logger: logger}
}

// Run executes the invocation and waits for it. The child is always
// reaped before Run returns.
func (r *ExecRunner) Run(ctx context.Context, inv translate.Invocation, opts Options) Result {
	res := Result{ExitCode: -1}
	if len(inv.Argv) == 0 {
		res.Err = &backend.Error{Op: "run", Backend: inv.Backend, Err: fmt.Errorf("%w: empty argv", backend.ErrSpawnFailed)}
		return res
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxOutput := opts.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, inv.Program(), inv.Args()...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.Stdin = opts.Stdin
	cmd.WaitDelay = waitDelay

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: maxOutput}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: maxOutput}
	cmd.Stdout = stdoutLimited
	cmd.Stderr = stderrLimited
	if opts.Stream {
		if opts.Stdout != nil {
			cmd.Stdout = io.MultiWriter(stdoutLimited, opts.Stdout)
		}
		if opts.Stderr != nil {
			cmd.Stderr = io.MultiWriter(stderrLimited, opts.Stderr)
		}
		res.Streamed = opts.Stdout != nil
	}

	log := r.logger.WithFields(logrus.Fields{"backend": inv.Backend, "argv": inv.Argv})
	log.Debug("starting process")

	started := time.Now()
	err := cmd.Start()
	if err == nil {
		res.Started = true
		err = cmd.Wait()
		res.ExitCode = cmd.ProcessState.ExitCode()
		if res.ExitCode == 0 && errors.Is(err, exec.ErrWaitDelay) {
			log.Warn("process exited but left its output pipes open")
			err = nil
		}
	}
	res.Duration = time.Since(started)
	res.Stdout = stdoutBuf.String()
	res.Stderr = stderrBuf.String()
	res.Truncated = stdoutLimited.truncated || stderrLimited.truncated
	if res.Truncated {
		log.Warnf("output truncated: %d bytes discarded", stdoutLimited.discarded+stderrLimited.discarded)
	}

	res.Err = classify(ctx, execCtx, inv, timeout, cmd, err)

	log.WithFields(logrus.Fields{"exit_code": res.ExitCode, "duration": res.Duration}).Debug("process finished")
	return res
}

func classify(ctx, execCtx context.Context, inv translate.Invocation, timeout time.Duration, cmd *exec.Cmd, err error) error {
	if err == nil {
		return nil
	}
	wrap := func(err error) error {
		return &backend.Error{Op: "run", Backend: inv.Backend, Err: err}
	}

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return wrap(context.Canceled)
	case errors.Is(execCtx.Err(), context.DeadlineExceeded):
		return wrap(fmt.Errorf("%w after %s", backend.ErrTimeout, timeout))
	}

	if cmd.ProcessState == nil {
		// never started
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return wrap(fmt.Errorf("%w: %s", backend.ErrBackendNotFound, inv.Program()))
		}
		return wrap(fmt.Errorf("%w: %w", backend.ErrSpawnFailed, err))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return wrap(exitErr)
	}
	// exited but Wait reported a pipe or WaitDelay error
	return wrap(err)
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
