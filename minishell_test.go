package minishell

import (
	"context"
	"os/exec"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/minishell/pkg/backend"
	"github.com/arc-language/minishell/pkg/config"
	"github.com/arc-language/minishell/pkg/platform"
	"github.com/arc-language/minishell/pkg/runner"
	"github.com/arc-language/minishell/pkg/translate"
)

type recorder struct {
	calls []translate.Invocation
	opts  []runner.Options
}

func (r *recorder) Run(_ context.Context, inv translate.Invocation, opts runner.Options) runner.Result {
	r.calls = append(r.calls, inv)
	r.opts = append(r.opts, opts)
	return runner.Result{Started: true, Stdout: "ok\n"}
}

func macHost(present map[string]bool) *platform.Host {
	return &platform.Host{
		Platform: backend.MacOS,
		Fs:       afero.NewMemMapFs(),
		LookPath: func(file string) (string, error) {
			if present[file] {
				return "/opt/homebrew/bin/" + file, nil
			}
			return "", exec.ErrNotFound
		},
	}
}

func TestManagerInstall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sudo = string(translate.SudoNever)
	cfg.Timeout = config.Duration(90)
	rec := &recorder{}

	m, err := NewManager(cfg, Options{Host: macHost(map[string]bool{"brew": true}), Runner: rec})
	require.NoError(t, err)

	out := m.Install(context.Background(), "wget")
	assert.Equal(t, AllSucceeded, out.Status)
	assert.Equal(t, 0, out.ExitCode())
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"/opt/homebrew/bin/brew", "install", "wget"}, rec.calls[0].Argv)
	assert.EqualValues(t, 90, rec.opts[0].Timeout)
	assert.True(t, rec.opts[0].Stream)
}

func TestManagerNoBackend(t *testing.T) {
	rec := &recorder{}
	m, err := NewManager(nil, Options{Host: macHost(nil), Runner: rec})
	require.NoError(t, err)

	out := m.Update(context.Background(), "")
	assert.Equal(t, NoBackendAvailable, out.Status)
	assert.ErrorIs(t, out.Err, ErrNoBackendAvailable)
	assert.Equal(t, 2, out.ExitCode())
	assert.Empty(t, rec.calls)
}

func TestManagerRescan(t *testing.T) {
	present := map[string]bool{}
	m, err := NewManager(nil, Options{Host: macHost(present)})
	require.NoError(t, err)

	assert.Empty(t, m.Inventory().Available)
	present["port"] = true
	assert.Empty(t, m.Inventory().Available, "inventory is cached")

	inv := m.Rescan()
	assert.Equal(t, []backend.ID{backend.MacPorts}, inv.Available.IDs())
}

func TestManagerRejectsBadExtraBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExtraBackends = []config.BackendSpec{{ID: "apt", Executable: "apt", Platforms: []string{"linux"}}}

	_, err := NewManager(cfg, Options{Host: macHost(nil)})
	assert.Error(t, err)
}

func TestManagerSyncWithoutRegistry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RegistryPath = ""

	m, err := NewManager(cfg, Options{Host: macHost(nil)})
	require.NoError(t, err)
	assert.Nil(t, m.Registry())

	_, err = m.Sync(context.Background(), "", nil)
	assert.ErrorContains(t, err, "no registry_path configured")
}
