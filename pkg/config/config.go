// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/arc-language/minishell/pkg/backend"
	"github.com/arc-language/minishell/pkg/runner"
	"github.com/arc-language/minishell/pkg/translate"
)

// EnvPath overrides the default config file location
const EnvPath = "MINISHELL_CONFIG"

// Config holds minishell configuration
type Config struct {
	DefaultBackend string        `yaml:"default_backend"`
	Priority       []string      `yaml:"priority,omitempty"`
	Disabled       []string      `yaml:"disabled,omitempty"`
	Timeout        Duration      `yaml:"timeout"`
	Sudo           string        `yaml:"sudo"`
	Stream         bool          `yaml:"stream"`
	Parallel       bool          `yaml:"parallel"`
	MaxOutputBytes int64         `yaml:"max_output_bytes"`
	Debug          bool          `yaml:"debug"`
	LogFile        string        `yaml:"log_file,omitempty"`
	NoColor        bool          `yaml:"no_color"`
	RegistryPath   string        `yaml:"registry_path"`
	RegistryURL    string        `yaml:"registry_url,omitempty"`
	ExtraBackends  []BackendSpec `yaml:"extra_backends,omitempty"`
}

// BackendSpec declares an additional package manager in YAML
type BackendSpec struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name,omitempty"`
	Executable  string   `yaml:"executable"`
	Platforms   []string `yaml:"platforms"`
	Privileged  bool     `yaml:"privileged,omitempty"`
	Install     []string `yaml:"install,omitempty"`
	Search      []string `yaml:"search,omitempty"`
	Update      []string `yaml:"update,omitempty"`
	UpdateAll   []string `yaml:"update_all,omitempty"`
	List        []string `yaml:"list,omitempty"`
	Unsupported []string `yaml:"unsupported,omitempty"`
	NoMatch     []string `yaml:"no_match,omitempty"`
	IgnoreLines []string `yaml:"ignore_lines,omitempty"`
}

// Duration is a time.Duration written as a string ("30m") in YAML
type Duration time.Duration

// UnmarshalYAML accepts Go duration strings
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: timeout must be a duration string: %w", value.Line, err)
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	if parsed < 0 {
		return fmt.Errorf("line %d: negative duration %q", value.Line, s)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string form
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultBackend: "", // Auto-detect
		Timeout:        Duration(runner.DefaultTimeout),
		Sudo:           string(translate.SudoAuto),
		Stream:         true,
		MaxOutputBytes: runner.DefaultMaxOutputBytes,
		RegistryPath:   defaultRegistryPath(),
	}
}

// DefaultPath returns $MINISHELL_CONFIG or ~/.config/minishell/config.yaml
func DefaultPath() (string, error) {
	if path := os.Getenv(EnvPath); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "minishell", "config.yaml"), nil
}

// Load loads configuration from file. A missing file yields the
// defaults; keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save saves configuration to file
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks values that cannot be checked by YAML decoding
func (c *Config) Validate() error {
	if _, err := translate.ParseSudoPolicy(c.Sudo); err != nil {
		return err
	}
	if c.MaxOutputBytes < 0 {
		return fmt.Errorf("max_output_bytes must not be negative")
	}

	set, err := c.Backends()
	if err != nil {
		return err
	}
	for _, id := range lo.Uniq(append(append([]string{c.DefaultBackend}, c.Priority...), c.Disabled...)) {
		if id == "" {
			continue
		}
		if _, ok := set.Lookup(backend.ID(id)); !ok {
			return fmt.Errorf("%w: %s", backend.ErrUnknownBackend, id)
		}
	}
	return nil
}

// SudoPolicy returns the parsed sudo policy
func (c *Config) SudoPolicy() translate.SudoPolicy {
	p, err := translate.ParseSudoPolicy(c.Sudo)
	if err != nil {
		return translate.SudoAuto
	}
	return p
}

// PriorityIDs returns the priority list as backend IDs
func (c *Config) PriorityIDs() []backend.ID {
	return toIDs(c.Priority)
}

// DisabledIDs returns the disabled list as backend IDs
func (c *Config) DisabledIDs() []backend.ID {
	return toIDs(c.Disabled)
}

// Backends returns the builtin descriptors plus extra_backends
func (c *Config) Backends() (backend.Set, error) {
	extra := make([]*backend.Descriptor, 0, len(c.ExtraBackends))
	for _, spec := range c.ExtraBackends {
		d, err := spec.Descriptor()
		if err != nil {
			return nil, err
		}
		extra = append(extra, d)
	}
	return backend.Builtin().With(extra...)
}

// Descriptor converts the YAML declaration into a backend descriptor
func (s BackendSpec) Descriptor() (*backend.Descriptor, error) {
	d := &backend.Descriptor{
		ID:          backend.ID(strings.ToLower(s.ID)),
		Name:        s.Name,
		Executable:  s.Executable,
		Privileged:  s.Privileged,
		NoMatch:     s.NoMatch,
		IgnoreLines: s.IgnoreLines,
		Templates:   make(map[backend.Verb]backend.Template, len(backend.Verbs)),
	}
	if d.Name == "" {
		d.Name = s.ID
	}

	for _, p := range s.Platforms {
		platform, ok := parsePlatform(p)
		if !ok {
			return nil, fmt.Errorf("%w: backend %s: unknown platform %q", backend.ErrInvalidDescriptor, s.ID, p)
		}
		d.Platforms = append(d.Platforms, platform)
	}

	argv := map[backend.Verb][]string{
		backend.Install: s.Install,
		backend.Search:  s.Search,
		backend.Update:  s.Update,
		backend.List:    s.List,
	}
	for _, v := range backend.Verbs {
		if len(argv[v]) > 0 {
			d.Templates[v] = backend.Template{Args: argv[v]}
		}
	}
	if t, ok := d.Templates[backend.Update]; ok {
		t.All = s.UpdateAll
		d.Templates[backend.Update] = t
	}
	for _, name := range s.Unsupported {
		v, ok := backend.ParseVerb(name)
		if !ok {
			return nil, fmt.Errorf("%w: backend %s: unknown verb %q", backend.ErrInvalidDescriptor, s.ID, name)
		}
		d.Templates[v] = backend.Template{Unsupported: true}
	}

	if err := backend.Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}

func parsePlatform(s string) (backend.Platform, bool) {
	switch strings.ToLower(s) {
	case "windows":
		return backend.Windows, true
	case "macos", "darwin":
		return backend.MacOS, true
	case "linux":
		return backend.Linux, true
	}
	return "", false
}

func toIDs(ss []string) []backend.ID {
	return lo.Map(ss, func(s string, _ int) backend.ID { return backend.ID(strings.ToLower(s)) })
}

func defaultRegistryPath() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "minishell", "deps")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "minishell", "deps")
	}

	return filepath.Join(home, ".cache", "minishell", "deps")
}
