package cli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/minishell/pkg/backend"
	"github.com/arc-language/minishell/pkg/platform"
	"github.com/arc-language/minishell/pkg/runner"
	"github.com/arc-language/minishell/pkg/translate"
)

type fakeRunner struct {
	mu      sync.Mutex
	results map[backend.ID]runner.Result
	calls   []translate.Invocation
}

func (f *fakeRunner) Run(_ context.Context, inv translate.Invocation, _ runner.Options) runner.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, inv)
	if r, ok := f.results[inv.Backend]; ok {
		return r
	}
	return runner.Result{Started: true}
}

type env struct {
	t      *testing.T
	fs     afero.Fs
	runner *fakeRunner
	host   *platform.Host
	config string
	stdin  string
}

// newEnv fakes a Linux host where only the given executables resolve
func newEnv(t *testing.T, present ...string) *env {
	t.Helper()

	found := map[string]bool{}
	for _, p := range present {
		found[p] = true
	}
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0o755))

	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("sudo: never\nstream: false\nregistry_path: /deps\n"), 0o644))

	return &env{
		t:      t,
		fs:     fs,
		runner: &fakeRunner{results: map[backend.ID]runner.Result{}},
		host: &platform.Host{
			Platform: backend.Linux,
			Fs:       fs,
			LookPath: func(file string) (string, error) {
				if found[file] {
					return "/usr/bin/" + file, nil
				}
				return "", exec.ErrNotFound
			},
		},
		config: cfg,
	}
}

func (e *env) run(args ...string) (string, error) {
	e.t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd(Options{
		Stdin:  strings.NewReader(e.stdin),
		Stdout: &out,
		Stderr: &out,
		Host:   e.host,
		Runner: e.runner,
		Fs:     e.fs,
		Dir:    "/work",
		Home:   "/work",
	})
	cmd.SetArgs(append([]string{"--config", e.config, "--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInstallSucceeds(t *testing.T) {
	e := newEnv(t, "apt", "snap")

	out, err := e.run("pkg", "install", "htop")
	require.NoError(t, err)
	assert.Contains(t, out, "==> APT: /usr/bin/apt install htop")
	assert.Contains(t, out, "✓ install htop completed using APT")

	require.Len(t, e.runner.calls, 1)
	assert.Equal(t, []string{"/usr/bin/apt", "install", "htop"}, e.runner.calls[0].Argv)
}

func TestInstallPropagatesExitCode(t *testing.T) {
	e := newEnv(t, "apt", "snap")
	e.runner.results[backend.Apt] = runner.Result{
		Started:  true,
		ExitCode: 100,
		Stderr:   "E: Unable to locate package nope\n",
		Err:      &backend.Error{Op: "run", Backend: backend.Apt, Err: assert.AnError},
	}

	out, err := e.run("pkg", "install", "nope")
	assert.Equal(t, 100, Code(err))
	assert.Contains(t, out, "E: Unable to locate package nope")
	assert.Len(t, e.runner.calls, 1, "install never falls through")
}

func TestExplicitBackend(t *testing.T) {
	e := newEnv(t, "apt", "snap")

	_, err := e.run("pkg", "install", "-b", "snap", "hello")
	require.NoError(t, err)
	require.Len(t, e.runner.calls, 1)
	assert.Equal(t, backend.Snap, e.runner.calls[0].Backend)
}

func TestNoBackendExitsTwo(t *testing.T) {
	e := newEnv(t)

	out, err := e.run("pkg", "update")
	assert.Equal(t, 2, Code(err))
	assert.Contains(t, out, "no package manager available to update on Linux")
	assert.Empty(t, e.runner.calls)
}

func TestPkgUsageAndUnknown(t *testing.T) {
	e := newEnv(t, "apt")

	out, err := e.run("pkg")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage: pkg <command> [arguments]")

	out, err = e.run("package", "frobnicate")
	assert.Equal(t, 1, Code(err))
	assert.Contains(t, out, "Unknown package command: frobnicate")
}

func TestMissingQuery(t *testing.T) {
	e := newEnv(t, "apt")

	out, err := e.run("pkg", "search")
	assert.Equal(t, 1, Code(err))
	assert.Contains(t, out, "package name or query is required")
	assert.Contains(t, out, "Usage: pkg search <query>")
	assert.Empty(t, e.runner.calls)
}

func TestManagers(t *testing.T) {
	e := newEnv(t, "dnf")

	out, err := e.run("pkg", "managers")
	require.NoError(t, err)
	assert.Contains(t, out, "DNF (installed: /usr/bin/dnf)")
	assert.Contains(t, out, "APT (not installed)")

	out, err = e.run("pkg", "rescan")
	require.NoError(t, err)
	assert.Contains(t, out, "Available package managers for your platform (Linux):")
}

func TestInfoUsesRegistry(t *testing.T) {
	e := newEnv(t, "apt")
	require.NoError(t, afero.WriteFile(e.fs, "/deps/sqlite3/index.toml", []byte(`
name = "sqlite3"
description = "SQLite development files"

[backends]
apt = "libsqlite3-dev"
dnf = "sqlite-devel"
`), 0o644))

	out, err := e.run("pkg", "info", "sqlite3")
	require.NoError(t, err)
	assert.Contains(t, out, "Package: sqlite3")
	assert.Contains(t, out, "Description: SQLite development files")
	assert.Contains(t, out, "apt        libsqlite3-dev (available)")
	assert.Contains(t, out, "dnf        sqlite-devel\n")

	out, err = e.run("pkg", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "1 packages in /deps")

	_, err = e.run("pkg", "install", "sqlite3")
	require.NoError(t, err)
	require.Len(t, e.runner.calls, 1)
	assert.Equal(t, []string{"/usr/bin/apt", "install", "libsqlite3-dev"}, e.runner.calls[0].Argv)
}

func TestCommandFlag(t *testing.T) {
	e := newEnv(t, "apt")

	out, err := e.run("-c", "echo hello 'big world'")
	require.NoError(t, err)
	assert.Equal(t, "hello big world\n", out)

	_, err = e.run("-c", "exit 3")
	assert.Equal(t, 3, Code(err))

	_, err = e.run("-c", "pkg install htop")
	require.NoError(t, err)
	assert.Len(t, e.runner.calls, 1)
}

func TestREPL(t *testing.T) {
	e := newEnv(t, "apt")
	e.stdin = "mkdir tools\ncd tools\npwd\npkg list\npkg install --bogus\nexit\n"

	out, err := e.run()
	require.NoError(t, err)
	assert.Contains(t, out, "minishell v"+Version)
	assert.Contains(t, out, "Platform: Linux")
	assert.Contains(t, out, "/work/tools> /work/tools\n")
	assert.Contains(t, out, "✓ list packages completed using APT")
	assert.Contains(t, out, "pkg: unknown flag: --bogus")

	require.Len(t, e.runner.calls, 1)
	assert.Equal(t, backend.List, backend.Verb(e.runner.calls[0].Argv[1]))
}

func TestVersion(t *testing.T) {
	e := newEnv(t)

	out, err := e.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "minishell version "+Version)
}

func TestConfigInitAndShow(t *testing.T) {
	e := newEnv(t)
	e.config = filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := e.run("config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+e.config)

	_, err = e.run("config", "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = e.run("config", "init", "--force")
	require.NoError(t, err)

	out, err = e.run("config", "show", "--timeout", "90s")
	require.NoError(t, err)
	assert.Contains(t, out, "timeout: 1m30s")
	assert.Contains(t, out, "sudo: auto")
}

func TestBadConfigFallsBackToDefaults(t *testing.T) {
	e := newEnv(t, "apt")
	require.NoError(t, os.WriteFile(e.config, []byte("sudo: sometimes\n"), 0o644))

	out, err := e.run("pkg", "managers")
	require.NoError(t, err)
	assert.Contains(t, out, "Error loading config")
	assert.Contains(t, out, "APT (installed: /usr/bin/apt)")
}
