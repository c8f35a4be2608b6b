// internal/cli/pkg.go
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/minishell/pkg/backend"
	"github.com/arc-language/minishell/pkg/dispatch"
)

const pkgCommands = "install, search, update, list, managers, rescan, sync, info"

func newPkgCmd(a *app) *cobra.Command {
	var backendID string

	pkgCmd := &cobra.Command{
		Use:     "pkg <command> [arguments]",
		Aliases: []string{"package"},
		Short:   "Install, search, update and list packages",
		Long: `Run a package operation with the package managers found on this system.

install and update use the first available backend, search tries each
backend in priority order until one has matches, and list asks every
backend. Use --backend to pick one explicitly.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, "Usage: pkg <command> [arguments]")
				fmt.Fprintf(out, "Commands: %s\n", pkgCommands)
				return nil
			}
			fmt.Fprintf(out, "Unknown package command: %s\n", args[0])
			fmt.Fprintf(out, "Available commands: %s\n", pkgCommands)
			return &ExitError{Code: 1}
		},
	}
	pkgCmd.PersistentFlags().StringVarP(&backendID, "backend", "b", "", "package manager backend to use (apt, homebrew, winget, ...)")

	verb := func(v backend.Verb, use, short, usage string, args cobra.PositionalArgs, aliases ...string) *cobra.Command {
		return &cobra.Command{
			Use:     use,
			Aliases: aliases,
			Short:   short,
			Args:    args,
			RunE: func(cmd *cobra.Command, args []string) error {
				req := dispatch.Request{Verb: v, Backend: backend.ID(backendID)}
				if len(args) > 0 {
					req.Query = args[0]
				}
				return a.dispatch(cmd, req, usage)
			},
		}
	}

	pkgCmd.AddCommand(
		verb(backend.Install, "install <package>", "Install a package", "Usage: pkg install <package>", cobra.MaximumNArgs(1), "i"),
		verb(backend.Search, "search <query>", "Search for packages", "Usage: pkg search <query>", cobra.MaximumNArgs(1), "s"),
		verb(backend.Update, "update [package]", "Update one package or everything", "", cobra.MaximumNArgs(1), "u", "upgrade"),
		verb(backend.List, "list", "List installed packages from every backend", "", cobra.NoArgs, "ls"),
		newManagersCmd(a),
		newRescanCmd(a),
		newSyncCmd(a),
		newInfoCmd(a),
	)
	return pkgCmd
}

// dispatch runs one request and reports it. A non-zero outcome becomes
// an ExitError carrying the outcome's exit code.
func (a *app) dispatch(cmd *cobra.Command, req dispatch.Request, usage string) error {
	out := a.manager.Dispatch(cmd.Context(), req)
	a.reporter(cmd).Outcome(out)
	if usage != "" && errors.Is(out.Err, backend.ErrMissingQuery) {
		fmt.Fprintln(cmd.OutOrStdout(), usage)
	}

	if code := out.ExitCode(); code != 0 {
		return &ExitError{Code: code, Err: out.Err}
	}
	return nil
}

func newManagersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "managers",
		Short: "List the package managers known for this platform",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			a.reporter(cmd).Managers(a.manager.Inventory())
		},
	}
}

func newRescanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rescan",
		Short: "Probe the system for package managers again",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			inv := a.manager.Rescan()
			a.logger.WithField("available", inv.Available.IDs()).Debug("rescanned")
			a.reporter(cmd).Managers(inv)
		},
	}
}
