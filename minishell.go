// minishell.go
package minishell

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/arc-language/minishell/pkg/backend"
	"github.com/arc-language/minishell/pkg/config"
	"github.com/arc-language/minishell/pkg/dispatch"
	"github.com/arc-language/minishell/pkg/index"
	"github.com/arc-language/minishell/pkg/platform"
	"github.com/arc-language/minishell/pkg/registry"
	"github.com/arc-language/minishell/pkg/runner"
	"github.com/arc-language/minishell/pkg/translate"
)

// Re-export types for convenience
type (
	Config     = config.Config
	BackendID  = backend.ID
	Verb       = backend.Verb
	Platform   = backend.Platform
	Descriptor = backend.Descriptor
	Request    = dispatch.Request
	Outcome    = dispatch.Outcome
	Result     = dispatch.Result
	Status     = dispatch.Status
	Inventory  = platform.Inventory
	// RegistryEntry is the metadata for a package from the deps/ registry
	RegistryEntry = registry.Entry
)

// Re-export verbs and statuses
const (
	Install = backend.Install
	Search  = backend.Search
	Update  = backend.Update
	List    = backend.List

	AllSucceeded       = dispatch.AllSucceeded
	PartialSuccess     = dispatch.PartialSuccess
	AllFailed          = dispatch.AllFailed
	NoBackendAvailable = dispatch.NoBackendAvailable
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// Options supply the host and streams a Manager runs against. Zero
// values use the current host and process.
type Options struct {
	Host   *platform.Host
	Runner runner.Runner
	Logger logrus.FieldLogger

	// Streams used for streamed output and interactive prompts
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Manager dispatches generic package requests to the host's package managers
type Manager struct {
	config     *Config
	detector   *platform.Detector
	dispatcher *dispatch.Dispatcher
	registry   *registry.Registry
	fs         afero.Fs
	logger     logrus.FieldLogger
}

// NewManager creates a manager from cfg. Detection is deferred to the
// first request.
func NewManager(cfg *Config, opts Options) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	set, err := cfg.Backends()
	if err != nil {
		return nil, fmt.Errorf("loading backends: %w", err)
	}

	host := platform.CurrentHost()
	if opts.Host != nil {
		host = *opts.Host
	}
	detector := platform.NewDetector(set, host, platform.Options{
		Priority: cfg.PriorityIDs(),
		Disabled: cfg.DisabledIDs(),
		Logger:   logger,
	})

	r := opts.Runner
	if r == nil {
		r = runner.New(logger)
	}

	m := &Manager{
		config:   cfg,
		detector: detector,
		logger:   logger,
	}

	dopts := dispatch.Options{
		DefaultBackend: backend.ID(cfg.DefaultBackend),
		Parallel:       cfg.Parallel,
		Translate:      translate.Options{Sudo: cfg.SudoPolicy(), LookPath: host.LookPath},
		Run: runner.Options{
			Timeout:        time.Duration(cfg.Timeout),
			Stream:         cfg.Stream,
			MaxOutputBytes: cfg.MaxOutputBytes,
			Stdin:          opts.Stdin,
			Stdout:         opts.Stdout,
			Stderr:         opts.Stderr,
		},
		Logger: logger,
	}
	if cfg.RegistryPath != "" {
		m.fs = host.Fs
		if m.fs == nil {
			m.fs = afero.NewOsFs()
		}
		m.registry = registry.New(m.fs, cfg.RegistryPath)
		dopts.Registry = m.registry
	}
	m.dispatcher = dispatch.New(detector, r, dopts)

	return m, nil
}

// Config returns the configuration the manager was built from
func (m *Manager) Config() *Config {
	return m.config
}

// Dispatch runs a generic request. The outcome is never nil.
func (m *Manager) Dispatch(ctx context.Context, req Request) *Outcome {
	return m.dispatcher.Dispatch(ctx, req)
}

// Install installs a package with the first available backend
func (m *Manager) Install(ctx context.Context, name string) *Outcome {
	return m.Dispatch(ctx, Request{Verb: Install, Query: name})
}

// Search searches backends in priority order until one has matches
func (m *Manager) Search(ctx context.Context, query string) *Outcome {
	return m.Dispatch(ctx, Request{Verb: Search, Query: query})
}

// Update updates one package, or everything when name is empty
func (m *Manager) Update(ctx context.Context, name string) *Outcome {
	return m.Dispatch(ctx, Request{Verb: Update, Query: name})
}

// List lists installed packages from every available backend
func (m *Manager) List(ctx context.Context) *Outcome {
	return m.Dispatch(ctx, Request{Verb: List})
}

// Inventory returns the detected backends, probing on first use
func (m *Manager) Inventory() *Inventory {
	return m.detector.Inventory()
}

// Rescan probes the host again
func (m *Manager) Rescan() *Inventory {
	return m.detector.Refresh()
}

// Registry returns the alias registry, or nil when none is configured
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// Sync refreshes the alias registry from url, or the configured
// registry_url when url is empty.
func (m *Manager) Sync(ctx context.Context, url string, progress io.Writer) (int, error) {
	if m.registry == nil {
		return 0, fmt.Errorf("sync: no registry_path configured")
	}
	if url == "" {
		url = m.config.RegistryURL
	}
	opts := index.DefaultOptions()
	if url != "" {
		opts.URL = url
	}
	opts.Progress = progress
	opts.Fs = m.fs
	opts.Logger = m.logger
	return index.Sync(ctx, m.registry.Dir(), opts)
}
