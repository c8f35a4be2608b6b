// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/arc-language/minishell"
	"github.com/arc-language/minishell/internal/log"
	"github.com/arc-language/minishell/internal/style"
	"github.com/arc-language/minishell/internal/shell"
	"github.com/arc-language/minishell/pkg/config"
	"github.com/arc-language/minishell/pkg/platform"
	"github.com/arc-language/minishell/pkg/report"
	"github.com/arc-language/minishell/pkg/runner"
)

// Options inject the process environment. Zero values use the real one.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Host and Runner replace backend detection and process spawning
	Host   *platform.Host
	Runner runner.Runner

	// Fs, Dir, Home and System configure the interactive shell
	Fs     afero.Fs
	Dir    string
	Home   string
	System shell.System

	// TrapInterrupts makes Ctrl-C cancel the running command instead of
	// terminating the shell
	TrapInterrupts bool
}

type globalFlags struct {
	cfgFile string
	debug   bool
	noColor bool
	timeout time.Duration
	command string
}

// app holds everything built from flags and config for one invocation
type app struct {
	opts  Options
	flags globalFlags

	config  *config.Config
	logger  *log.Logger
	styles  *style.Styles
	manager *minishell.Manager
}

// Execute runs minishell against the real process environment
func Execute() error {
	return NewRootCmd(Options{TrapInterrupts: true}).ExecuteContext(context.Background())
}

// NewRootCmd builds the command tree
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	a := &app{opts: opts}

	rootCmd := &cobra.Command{
		Use:   "minishell",
		Short: "Shell with a universal package manager",
		Long: `minishell - a small shell with a universal package manager

Built-in file commands plus one pkg interface that dispatches to whichever
package managers are installed: APT, DNF, Pacman, Zypper, Homebrew, MacPorts,
Chocolatey, WinGet, Scoop, Snap and Flatpak.

Run without arguments for the interactive shell.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
		RunE: a.runShell,
	}
	rootCmd.SetIn(opts.Stdin)
	rootCmd.SetOut(opts.Stdout)
	rootCmd.SetErr(opts.Stderr)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.flags.cfgFile, "config", "", "config file (default is $HOME/.config/minishell/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.flags.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().DurationVar(&a.flags.timeout, "timeout", 0, "time limit for each package manager invocation")
	rootCmd.Flags().StringVarP(&a.flags.command, "command", "c", "", "run one shell line and exit")

	// Add commands
	rootCmd.AddCommand(newPkgCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// init loads config, applies flag overrides and builds the manager
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.cfgFile)
	if err != nil {
		fmt.Fprintf(a.opts.Stderr, "Error loading config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	// Override config with flags
	if a.flags.debug {
		cfg.Debug = true
	}
	if a.flags.noColor || os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = config.Duration(a.flags.timeout)
	}
	a.config = cfg

	a.logger, err = log.New(log.Options{Debug: cfg.Debug, File: cfg.LogFile, Stderr: a.opts.Stderr})
	if err != nil {
		fmt.Fprintf(a.opts.Stderr, "Error opening log file: %v\n", err)
		a.logger, _ = log.New(log.Options{Debug: cfg.Debug, Stderr: a.opts.Stderr})
	}
	a.styles = style.New(cfg.NoColor)

	a.manager, err = minishell.NewManager(cfg, minishell.Options{
		Host:   a.opts.Host,
		Runner: a.opts.Runner,
		Logger: a.logger,
		Stdin:  a.opts.Stdin,
		Stdout: a.opts.Stdout,
		Stderr: a.opts.Stderr,
	})
	if err != nil {
		return fmt.Errorf("initializing package managers: %w", err)
	}

	a.logger.WithField("config", a.flags.cfgFile).Debug("initialized")
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func (a *app) reporter(cmd *cobra.Command) *report.Reporter {
	return report.New(cmd.OutOrStdout(), a.styles)
}
