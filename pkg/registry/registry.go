// pkg/registry/registry.go
package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/arc-language/minishell/pkg/backend"
)

// EntryFile is the file name of each registry entry
const EntryFile = "index.toml"

var (
	// ErrNotSynced indicates the registry directory does not exist yet
	ErrNotSynced = errors.New("registry: deps not found, run pkg sync first")
	// ErrNotFound indicates no entry or no backend mapping for a name
	ErrNotFound = errors.New("registry: no alias")
)

// Entry represents a single deps/<name>/index.toml file
type Entry struct {
	Name        string            `toml:"name"`
	Description string            `toml:"description"`
	Backends    map[string]string `toml:"backends"`
}

// Registry maps canonical package names to backend-specific names
type Registry struct {
	fs      afero.Fs
	depsDir string
}

// New creates a Registry reading entries from depsDir on fs
func New(fs afero.Fs, depsDir string) *Registry {
	return &Registry{
		fs:      fs,
		depsDir: depsDir,
	}
}

// Dir returns the directory entries are read from
func (r *Registry) Dir() string {
	return r.depsDir
}

// Resolve takes a canonical package name and a backend,
// returns the backend-specific package name.
// e.g. Resolve("sqlite3", "apt") -> "libsqlite3-dev"
func (r *Registry) Resolve(name string, id backend.ID) (string, error) {
	entry, err := r.Load(name)
	if err != nil {
		return "", err
	}

	pkgName, ok := entry.Backends[string(id)]
	if !ok || pkgName == "" {
		return "", fmt.Errorf("%w: package '%s' has no entry for backend '%s'", ErrNotFound, name, id)
	}

	return pkgName, nil
}

// Load reads and parses deps/<name>/index.toml
func (r *Registry) Load(name string) (*Entry, error) {
	if ok, _ := afero.DirExists(r.fs, r.depsDir); !ok {
		return nil, ErrNotSynced
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: invalid package name '%s'", ErrNotFound, name)
	}

	path := filepath.Join(r.depsDir, name, EntryFile)

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		// Check if the directory exists, to give a better error message.
		if ok, _ := afero.DirExists(r.fs, filepath.Dir(path)); ok {
			return nil, fmt.Errorf("registry: found package '%s' directory, but missing %s", name, EntryFile)
		}
		return nil, fmt.Errorf("%w: package '%s' not found", ErrNotFound, name)
	}

	var entry Entry
	if _, err := toml.Decode(string(data), &entry); err != nil {
		return nil, fmt.Errorf("registry: failed to parse '%s': %w", name, err)
	}
	if entry.Name == "" {
		entry.Name = name
	}

	return &entry, nil
}

// Names lists every entry in the registry, sorted
func (r *Registry) Names() ([]string, error) {
	infos, err := afero.ReadDir(r.fs, r.depsDir)
	if err != nil {
		return nil, ErrNotSynced
	}

	var names []string
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		if ok, _ := afero.Exists(r.fs, filepath.Join(r.depsDir, info.Name(), EntryFile)); ok {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
