// internal/cli/shell.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/arc-language/minishell/internal/shell"
)

// runShell starts the REPL, or runs the -c line
func (a *app) runShell(cmd *cobra.Command, _ []string) error {
	var intr chan os.Signal
	if a.opts.TrapInterrupts {
		intr = make(chan os.Signal, 1)
		signal.Notify(intr, os.Interrupt)
		defer signal.Stop(intr)
	}

	sh, err := a.newShell(cmd, intr)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("command") {
		err := sh.Exec(cmd.Context(), a.flags.command)
		var coder shell.ExitCoder
		switch {
		case err == nil:
			return nil
		case errors.As(err, &coder):
			if coder.ExitCode() == 0 {
				return nil
			}
			return &ExitError{Code: coder.ExitCode()}
		default:
			return err
		}
	}

	if code := sh.Run(cmd.Context()); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

func (a *app) newShell(cmd *cobra.Command, intr <-chan os.Signal) (*shell.Shell, error) {
	opts := shell.Options{
		Fs:         a.opts.Fs,
		Dir:        a.opts.Dir,
		Home:       a.opts.Home,
		Platform:   a.manager.Inventory().Platform,
		Version:    Version,
		Stdin:      cmd.InOrStdin(),
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
		Styles:     a.styles,
		Logger:     a.logger,
		System:     a.opts.System,
		Interrupts: intr,
	}

	sh, err := shell.New(opts)
	if err != nil {
		return nil, err
	}
	sh.Register("pkg", a.pkgBuiltin)
	sh.Register("package", a.pkgBuiltin)
	return sh, nil
}

// pkgBuiltin runs a pkg line from the shell through a fresh pkg command
// tree, so flags never leak between lines
func (a *app) pkgBuiltin(ctx context.Context, sh *shell.Shell, args []string) error {
	pkgCmd := newPkgCmd(a)
	pkgCmd.CompletionOptions.DisableDefaultCmd = true
	pkgCmd.SetArgs(args)
	pkgCmd.SetIn(sh.Stdin())
	pkgCmd.SetOut(sh.Stdout())
	pkgCmd.SetErr(sh.Stderr())

	err := pkgCmd.ExecuteContext(ctx)
	var exitErr *ExitError
	if err == nil || errors.As(err, &exitErr) {
		return err
	}
	fmt.Fprintln(sh.Stdout(), sh.Styles().Error.Render("pkg: "+err.Error()))
	return &ExitError{Code: 1, Err: err}
}
