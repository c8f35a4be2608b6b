package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arc-language/minishell/pkg/backend"
)

// Stdio are the streams handed to an external command
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// System runs a line through the host shell in dir
type System interface {
	Run(ctx context.Context, line, dir string, stdio Stdio) error
}

// StatusError reports a non-zero exit of an external command. Signaled
// is set when the process was killed instead of exiting.
type StatusError struct {
	Code     int
	Signaled bool
}

func (e *StatusError) Error() string {
	if e.Signaled {
		return "Command terminated by signal"
	}
	return fmt.Sprintf("Command exited with non-zero status code: %d", e.Code)
}

// ExitCode implements ExitCoder
func (e *StatusError) ExitCode() int {
	if e.Signaled {
		return 1
	}
	return e.Code
}

// ExecSystem runs lines with the platform shell
type ExecSystem struct {
	Platform backend.Platform
	// Shell overrides the detected shell binary
	Shell    string
	LookPath func(string) (string, error)
	Getenv   func(string) string
}

// Run implements System
func (e *ExecSystem) Run(ctx context.Context, line, dir string, stdio Stdio) error {
	shell, err := e.shell()
	if err != nil {
		return err
	}
	args := append(shellArgs(shell), line)

	cmd := exec.CommandContext(ctx, shell, args...)
	cmd.Dir = dir
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err

	err = cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return &StatusError{Code: code}
		}
		return &StatusError{Signaled: true}
	}
	return err
}

// shell picks pwsh, powershell or cmd on Windows and $SHELL, bash or sh elsewhere
func (e *ExecSystem) shell() (string, error) {
	if e.Shell != "" {
		return e.Shell, nil
	}
	lookPath := e.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	getenv := e.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	candidates := []string{"bash", "sh"}
	if e.Platform == backend.Windows {
		candidates = []string{"pwsh", "powershell", "cmd"}
	} else if sh := getenv("SHELL"); sh != "" {
		return sh, nil
	}
	for _, c := range candidates {
		if path, err := lookPath(c); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no shell found")
}

// shellArgs returns the flags that make shell run one command string
func shellArgs(shell string) []string {
	base := strings.TrimSuffix(strings.ToLower(filepath.Base(shell)), ".exe")
	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}

// external hands line to the system shell and reports a failing status
func (s *Shell) external(ctx context.Context, line string) error {
	err := s.system.Run(ctx, line, s.dir, Stdio{In: s.stdin, Out: s.stdout, Err: s.stderr})
	if err == nil {
		return nil
	}

	var status *StatusError
	if errors.As(err, &status) {
		s.printf("%s\n", s.styles.Error.Render(status.Error()))
		return status
	}
	s.printf("%s\n", s.styles.Error.Render("Failed to execute command: "+err.Error()))
	return &StatusError{Code: 127}
}
