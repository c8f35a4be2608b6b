// Package shell implements the interactive minishell: a prompt loop,
// a handful of file-system builtins and a hand-off to the system shell
// for everything else.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/arc-language/minishell/internal/style"
	"github.com/arc-language/minishell/pkg/backend"
)

// Name is printed in the banner
const Name = "minishell"

// Handler runs one command. Args exclude the command name.
type Handler func(ctx context.Context, sh *Shell, args []string) error

// ExitCoder is implemented by errors that carry a process exit code.
// The shell treats them as already reported.
type ExitCoder interface {
	ExitCode() int
}

// Exit is returned by the exit builtin
type Exit struct {
	Code int
}

func (e *Exit) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// ExitCode implements ExitCoder
func (e *Exit) ExitCode() int {
	return e.Code
}

// Options configure a Shell. Zero values pick the host defaults.
type Options struct {
	Fs       afero.Fs
	Dir      string
	Home     string
	Platform backend.Platform
	Version  string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Styles *style.Styles
	Logger logrus.FieldLogger

	// Chdir is called with the new directory after a successful cd.
	// It defaults to os.Chdir when Fs is the OS file system.
	Chdir func(string) error

	// System runs lines the shell does not handle itself
	System System

	// Interrupts, when set, cancel the running command instead of the shell
	Interrupts <-chan os.Signal
}

// Shell holds the working directory and the command table
type Shell struct {
	fs       afero.Fs
	dir      string
	home     string
	platform backend.Platform
	version  string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	styles *style.Styles
	logger logrus.FieldLogger
	chdir  func(string) error
	system System
	intr   <-chan os.Signal

	handlers map[string]Handler
}

// New creates a shell with the builtins registered
func New(opts Options) (*Shell, error) {
	sh := &Shell{
		fs:       opts.Fs,
		dir:      opts.Dir,
		home:     opts.Home,
		platform: opts.Platform,
		version:  opts.Version,
		stdin:    opts.Stdin,
		stdout:   opts.Stdout,
		stderr:   opts.Stderr,
		styles:   opts.Styles,
		logger:   opts.Logger,
		chdir:    opts.Chdir,
		system:   opts.System,
		intr:     opts.Interrupts,
		handlers: make(map[string]Handler),
	}

	if sh.fs == nil {
		sh.fs = afero.NewOsFs()
		if sh.chdir == nil {
			sh.chdir = os.Chdir
		}
	}
	if sh.dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		sh.dir = wd
	}
	if sh.home == "" {
		sh.home, _ = os.UserHomeDir()
	}
	if sh.platform == "" {
		sh.platform = backend.PlatformFromGOOS(runtime.GOOS)
	}
	if sh.stdin == nil {
		sh.stdin = os.Stdin
	}
	if sh.stdout == nil {
		sh.stdout = os.Stdout
	}
	if sh.stderr == nil {
		sh.stderr = os.Stderr
	}
	if sh.styles == nil {
		sh.styles = style.Plain()
	}
	if sh.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		sh.logger = l
	}
	if sh.system == nil {
		sh.system = &ExecSystem{Platform: sh.platform}
	}

	registerBuiltins(sh)
	return sh, nil
}

// Register adds or replaces a command
func (s *Shell) Register(name string, h Handler) {
	s.handlers[name] = h
}

// Commands returns the registered command names, sorted
func (s *Shell) Commands() []string {
	names := lo.Keys(s.handlers)
	sort.Strings(names)
	return names
}

// Dir returns the working directory
func (s *Shell) Dir() string { return s.dir }

// Fs returns the file system the builtins operate on
func (s *Shell) Fs() afero.Fs { return s.fs }

// Stdout returns the shell's output stream
func (s *Shell) Stdout() io.Writer { return s.stdout }

// Stderr returns the shell's error stream
func (s *Shell) Stderr() io.Writer { return s.stderr }

// Stdin returns the shell's input stream
func (s *Shell) Stdin() io.Reader { return s.stdin }

// Styles returns the styles used for output
func (s *Shell) Styles() *style.Styles { return s.styles }

// Exec runs a single line. Builtins and registered commands run in
// process; anything else goes to the system shell with the line as typed.
func (s *Shell) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	fields, err := s.split(line)
	if err != nil {
		s.logger.WithField("line", line).Debug("handing line to system shell")
		return s.external(ctx, line)
	}
	if len(fields) == 0 {
		return nil
	}

	h, ok := s.handlers[fields[0]]
	if !ok {
		return s.external(ctx, line)
	}
	s.logger.WithField("command", fields[0]).Debug("running builtin")
	return h(ctx, s, fields[1:])
}

// Run prints the banner and reads lines until exit or end of input.
// It returns the exit code.
func (s *Shell) Run(ctx context.Context) int {
	s.banner()

	scanner := bufio.NewScanner(s.stdin)
	code := 0
	for {
		s.prompt()
		if !scanner.Scan() {
			break
		}

		err := s.interruptible(ctx, func(ctx context.Context) error {
			return s.Exec(ctx, scanner.Text())
		})

		var exit *Exit
		var coder ExitCoder
		switch {
		case err == nil:
			code = 0
		case errors.As(err, &exit):
			return exit.Code
		case errors.As(err, &coder):
			code = coder.ExitCode()
		default:
			code = 1
			fmt.Fprintln(s.stdout, s.styles.Error.Render(err.Error()))
		}
		if ctx.Err() != nil {
			return code
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(s.stderr, s.styles.Error.Render("reading input: "+err.Error()))
		return 1
	}
	fmt.Fprintln(s.stdout)
	return code
}

// interruptible runs fn with a context cancelled by the next interrupt
func (s *Shell) interruptible(ctx context.Context, fn func(context.Context) error) error {
	if s.intr == nil {
		return fn(ctx)
	}

	// drop interrupts that arrived at the prompt
	for drained := false; !drained; {
		select {
		case <-s.intr:
		default:
			drained = true
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.intr:
			cancel()
		case <-done:
		}
	}()
	return fn(ctx)
}

func (s *Shell) banner() {
	fmt.Fprintf(s.stdout, "%s %s\n", s.styles.Success.Render(Name), s.styles.Header.Render("v"+s.version))
	fmt.Fprintf(s.stdout, "%s %s\n", s.styles.Prompt.Render("Platform:"), s.platform.DisplayName())
	fmt.Fprintf(s.stdout, "%s\n\n", s.styles.Bold.Render("Type 'help' for available commands, 'exit' to quit"))
}

func (s *Shell) prompt() {
	fmt.Fprintf(s.stdout, "%s%s ", s.styles.Prompt.Render(s.dir), s.styles.Warning.Render(">"))
}

func (s *Shell) split(line string) ([]string, error) {
	// backslash is a path separator on Windows, not an escape
	if s.platform == backend.Windows && strings.Contains(line, `\`) {
		return strings.Fields(line), nil
	}
	return Split(line, s.home)
}

// resolve turns a user path into an absolute one against the working directory
func (s *Shell) resolve(p string) string {
	switch {
	case p == "~":
		return s.home
	case strings.HasPrefix(p, "~/"):
		return filepath.Join(s.home, p[2:])
	case filepath.IsAbs(p), strings.HasPrefix(p, "/"), strings.HasPrefix(p, `\`), filepath.VolumeName(p) != "":
		return filepath.Clean(p)
	default:
		return filepath.Join(s.dir, p)
	}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.stdout, format, args...)
}
