package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/arc-language/minishell/pkg/backend"
	"github.com/arc-language/minishell/pkg/platform"
	"github.com/arc-language/minishell/pkg/runner"
	"github.com/arc-language/minishell/pkg/translate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedRunner returns canned results per backend and records calls
type scriptedRunner struct {
	mu      sync.Mutex
	results map[backend.ID]runner.Result
	delays  map[backend.ID]time.Duration
	calls   []translate.Invocation
	opts    []runner.Options
}

func newScript() *scriptedRunner {
	return &scriptedRunner{
		results: map[backend.ID]runner.Result{},
		delays:  map[backend.ID]time.Duration{},
	}
}

func (s *scriptedRunner) on(id backend.ID, r runner.Result) *scriptedRunner {
	s.results[id] = r
	return s
}

func (s *scriptedRunner) Run(ctx context.Context, inv translate.Invocation, opts runner.Options) runner.Result {
	s.mu.Lock()
	s.calls = append(s.calls, inv)
	s.opts = append(s.opts, opts)
	r, ok := s.results[inv.Backend]
	delay := s.delays[inv.Backend]
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if !ok {
		return ok0("")
	}
	return r
}

func (s *scriptedRunner) invoked() []backend.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]backend.ID, 0, len(s.calls))
	for _, c := range s.calls {
		ids = append(ids, c.Backend)
	}
	return ids
}

func ok0(stdout string) runner.Result {
	return runner.Result{Started: true, ExitCode: 0, Stdout: stdout}
}

func exitWith(code int, stderr string) runner.Result {
	return runner.Result{
		Started:  true,
		ExitCode: code,
		Stderr:   stderr,
		Err:      &backend.Error{Op: "run", Err: fmt.Errorf("exit status %d", code)},
	}
}

func linux(set backend.Set, present ...string) *platform.Detector {
	found := map[string]bool{}
	for _, p := range present {
		found[p] = true
	}
	host := platform.Host{
		Platform: backend.Linux,
		LookPath: func(file string) (string, error) {
			if found[file] {
				return "/usr/bin/" + file, nil
			}
			return "", exec.ErrNotFound
		},
	}
	return platform.NewDetector(set, host, platform.Options{})
}

func neverSudo() translate.Options {
	return translate.Options{Sudo: translate.SudoNever}
}

func TestListPartialSuccess(t *testing.T) {
	r := newScript().
		on(backend.Apt, ok0("htop/noble 3.3.0 amd64 [installed]\n")).
		on(backend.Snap, exitWith(1, "error: cannot communicate with server\n"))
	d := New(linux(backend.Builtin(), "apt", "snap"), r, Options{Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.List})

	assert.Equal(t, PartialSuccess, out.Status)
	assert.Equal(t, []backend.ID{backend.Apt, backend.Snap}, r.invoked())
	require.Len(t, out.Results, 2)
	assert.True(t, out.Results[0].Succeeded)
	assert.False(t, out.Results[1].Succeeded)
	assert.Equal(t, NonZeroExit, out.Results[1].Failure)
	assert.Equal(t, "error: cannot communicate with server\n", out.Results[1].Stderr)
	assert.Equal(t, 1, out.ExitCode())
	assert.False(t, out.Single)
}

func TestListAllSucceeded(t *testing.T) {
	r := newScript()
	d := New(linux(backend.Builtin(), "apt", "flatpak"), r, Options{Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.List})
	assert.Equal(t, AllSucceeded, out.Status)
	assert.Equal(t, 0, out.ExitCode())
}

func TestInstallNeverFallsThrough(t *testing.T) {
	r := newScript().on(backend.Apt, exitWith(100, "E: Unable to locate package foo\n"))
	d := New(linux(backend.Builtin(), "apt", "snap"), r, Options{Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.Install, Query: "foo"})

	assert.Equal(t, AllFailed, out.Status)
	assert.Equal(t, []backend.ID{backend.Apt}, r.invoked(), "snap must not be invoked")
	assert.True(t, out.Single)
	assert.Equal(t, 100, out.ExitCode(), "the tool's exit code propagates")
	if diff := cmp.Diff([]string{"/usr/bin/apt", "install", "foo"}, out.Results[0].Invocation.Argv); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateNeverFallsThrough(t *testing.T) {
	r := newScript().on(backend.Dnf, exitWith(1, "Error: Failed to download metadata\n"))
	d := New(linux(backend.Builtin(), "dnf", "flatpak"), r, Options{Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.Update})

	assert.Equal(t, []backend.ID{backend.Dnf}, r.invoked())
	assert.Equal(t, []string{"/usr/bin/dnf", "upgrade"}, out.Results[0].Invocation.Argv)
	assert.Equal(t, AllFailed, out.Status)
	assert.Equal(t, 1, out.ExitCode())
}

func TestSearchFallsThroughOnZeroMatches(t *testing.T) {
	r := newScript().
		on(backend.Apt, ok0("Sorting...\nFull Text Search...\n")).
		on(backend.Snap, ok0("Name  Version  Publisher\nbar   1.0      someone\n"))
	d := New(linux(backend.Builtin(), "apt", "snap"), r, Options{Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.Search, Query: "bar"})

	assert.Equal(t, []backend.ID{backend.Apt, backend.Snap}, r.invoked())
	require.Len(t, out.Results, 2)
	assert.True(t, out.Results[0].Succeeded)
	assert.False(t, out.Results[0].Matched)
	assert.True(t, out.Results[1].Matched)
	assert.Equal(t, PartialSuccess, out.Status)
	assert.Equal(t, 1, out.ExitCode())
}

func TestSearchFallsThroughOnFailure(t *testing.T) {
	r := newScript().
		on(backend.Apt, exitWith(100, "E: broken cache\n")).
		on(backend.Snap, exitWith(1, "No matching snaps for \"bar\"\n"))
	d := New(linux(backend.Builtin(), "apt", "snap"), r, Options{Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.Search, Query: "bar"})

	assert.Equal(t, []backend.ID{backend.Apt, backend.Snap}, r.invoked())
	assert.Equal(t, AllFailed, out.Status)
	assert.Len(t, out.Failed(), 2)
}

func TestSearchStopsAtFirstMatch(t *testing.T) {
	r := newScript().on(backend.Apt, ok0("Sorting...\nbar/noble 1.0 all\n"))
	d := New(linux(backend.Builtin(), "apt", "snap", "flatpak"), r, Options{Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.Search, Query: "bar"})

	assert.Equal(t, []backend.ID{backend.Apt}, r.invoked())
	assert.Equal(t, AllSucceeded, out.Status)
	assert.Equal(t, 0, out.ExitCode())
}

func TestSearchStopsWhenCanceled(t *testing.T) {
	r := newScript().on(backend.Apt, runner.Result{Started: true, ExitCode: -1, Err: &backend.Error{Op: "run", Err: context.Canceled}})
	d := New(linux(backend.Builtin(), "apt", "snap"), r, Options{Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.Search, Query: "bar"})

	assert.Equal(t, []backend.ID{backend.Apt}, r.invoked())
	assert.Equal(t, Canceled, out.Results[0].Failure)
}

func TestNoBackendAvailable(t *testing.T) {
	r := newScript()
	d := New(linux(backend.Builtin()), r, Options{Translate: neverSudo()})

	for _, verb := range backend.Verbs {
		out := d.Dispatch(context.Background(), Request{Verb: verb, Query: "x"})
		assert.Equal(t, NoBackendAvailable, out.Status, verb)
		assert.Equal(t, 2, out.ExitCode(), verb)
		assert.ErrorIs(t, out.Err, backend.ErrNoBackendAvailable)
		assert.Len(t, out.Checked, 6)
		assert.Len(t, out.Missing, 6)
	}
	assert.Empty(t, r.invoked(), "no process may be spawned")
}

func toyDescriptor() *backend.Descriptor {
	return &backend.Descriptor{
		ID:         "toy",
		Executable: "toy",
		Platforms:  []backend.Platform{backend.Linux},
		Templates: map[backend.Verb]backend.Template{
			backend.Install: {Args: []string{"add", backend.Placeholder}},
			backend.Search:  {Unsupported: true},
			backend.Update:  {Args: []string{"up", backend.Placeholder}, All: []string{"up"}},
			backend.List:    {Args: []string{"ls"}},
		},
	}
}

func TestUnsupportedVerbIsSkipped(t *testing.T) {
	set, err := backend.Set{toyDescriptor()}.With(backend.Builtin()...)
	require.NoError(t, err)

	r := newScript().on(backend.Apt, ok0("bar/noble 1.0 all\n"))
	d := New(linux(set, "toy", "apt"), r, Options{Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.Search, Query: "bar"})
	assert.Equal(t, []backend.ID{backend.Apt}, r.invoked())
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, backend.ID("toy"), out.Skipped[0].Backend.ID)
	assert.Equal(t, UnsupportedVerb, out.Skipped[0].Reason)
	assert.ErrorIs(t, out.Skipped[0].Err, backend.ErrUnsupportedVerb)
}

func TestOnlyUnsupportedBackend(t *testing.T) {
	r := newScript()
	d := New(linux(backend.Set{toyDescriptor()}, "toy"), r, Options{Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.Search, Query: "bar"})
	assert.Equal(t, NoBackendAvailable, out.Status)
	assert.Len(t, out.Skipped, 1)
	assert.Empty(t, r.invoked())

	out = d.Dispatch(context.Background(), Request{Verb: backend.Search, Query: "bar", Backend: "toy"})
	assert.Equal(t, NoBackendAvailable, out.Status)
	assert.Len(t, out.Skipped, 1)
}

func TestExplicitBackend(t *testing.T) {
	r := newScript().on(backend.Snap, runner.Result{Started: true, ExitCode: 0, Stdout: "No matching snaps for \"bar\"\n"})
	d := New(linux(backend.Builtin(), "apt", "snap"), r, Options{Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.Search, Query: "bar", Backend: backend.Snap})

	assert.Equal(t, []backend.ID{backend.Snap}, r.invoked())
	assert.True(t, out.Single)
	assert.False(t, out.Results[0].Matched)
	assert.Equal(t, AllFailed, out.Status)
	assert.Equal(t, 0, out.ExitCode(), "targeted search propagates the tool's exit code")
}

func TestExplicitBackendErrors(t *testing.T) {
	r := newScript()
	d := New(linux(backend.Builtin(), "apt"), r, Options{Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.Install, Query: "x", Backend: backend.Dnf})
	assert.Equal(t, AllFailed, out.Status)
	require.Len(t, out.Results, 1)
	assert.Equal(t, BackendNotFound, out.Results[0].Failure)
	assert.Equal(t, backend.Dnf, out.Results[0].Backend.ID)
	assert.Equal(t, 1, out.ExitCode())

	out = d.Dispatch(context.Background(), Request{Verb: backend.Install, Query: "x", Backend: backend.Homebrew})
	assert.Equal(t, NoBackendAvailable, out.Status)

	out = d.Dispatch(context.Background(), Request{Verb: backend.Install, Query: "x", Backend: "emerge"})
	assert.Equal(t, AllFailed, out.Status)
	assert.ErrorIs(t, out.Err, backend.ErrUnknownBackend)
	assert.Equal(t, 1, out.ExitCode())

	assert.Empty(t, r.invoked())
}

func TestMissingQuery(t *testing.T) {
	r := newScript()
	d := New(linux(backend.Builtin(), "apt"), r, Options{Translate: neverSudo()})

	for _, verb := range []backend.Verb{backend.Install, backend.Search} {
		out := d.Dispatch(context.Background(), Request{Verb: verb})
		assert.ErrorIs(t, out.Err, backend.ErrMissingQuery)
		assert.Equal(t, 1, out.ExitCode())
	}
	assert.Empty(t, r.invoked())
}

func TestDefaultBackend(t *testing.T) {
	r := newScript().on(backend.Apt, ok0("gimp/noble 2.10.36 amd64\n"))
	d := New(linux(backend.Builtin(), "apt", "flatpak"), r, Options{DefaultBackend: backend.Flatpak, Translate: neverSudo()})

	d.Dispatch(context.Background(), Request{Verb: backend.Install, Query: "org.gimp.GIMP"})
	d.Dispatch(context.Background(), Request{Verb: backend.Search, Query: "gimp"})
	assert.Equal(t, []backend.ID{backend.Flatpak, backend.Apt}, r.invoked(), "default applies to install and update only")

	missing := New(linux(backend.Builtin(), "apt"), r, Options{DefaultBackend: backend.Flatpak, Translate: neverSudo()})
	out := missing.Dispatch(context.Background(), Request{Verb: backend.Install, Query: "x"})
	assert.Equal(t, backend.Apt, out.Results[0].Backend.ID)
}

type mapResolver map[string]map[backend.ID]string

func (m mapResolver) Resolve(name string, id backend.ID) (string, error) {
	if n, ok := m[name][id]; ok {
		return n, nil
	}
	return "", errors.New("no alias")
}

func TestRegistryAlias(t *testing.T) {
	r := newScript()
	reg := mapResolver{"sqlite3": {backend.Apt: "libsqlite3-dev"}}
	d := New(linux(backend.Builtin(), "apt", "pacman"), r, Options{Registry: reg, Translate: neverSudo()})

	out := d.Dispatch(context.Background(), Request{Verb: backend.Install, Query: "sqlite3"})
	assert.Equal(t, "libsqlite3-dev", out.Results[0].Query)
	assert.Equal(t, []string{"/usr/bin/apt", "install", "libsqlite3-dev"}, out.Results[0].Invocation.Argv)

	out = d.Dispatch(context.Background(), Request{Verb: backend.Install, Query: "sqlite3", Backend: backend.Pacman})
	assert.Equal(t, "sqlite3", out.Results[0].Query, "unmapped backends get the name as typed")
}

func TestSudoEscalation(t *testing.T) {
	r := newScript()
	topts := translate.Options{
		Sudo:    translate.SudoAuto,
		Geteuid: func() int { return 1000 },
		LookPath: func(file string) (string, error) {
			return "/usr/bin/" + file, nil
		},
	}
	d := New(linux(backend.Builtin(), "apt"), r, Options{Translate: topts})

	out := d.Dispatch(context.Background(), Request{Verb: backend.Install, Query: "htop"})
	assert.Equal(t, []string{"/usr/bin/sudo", "/usr/bin/apt", "install", "htop"}, out.Results[0].Invocation.Argv)

	out = d.Dispatch(context.Background(), Request{Verb: backend.List})
	assert.Equal(t, []string{"/usr/bin/apt", "list", "--installed"}, out.Results[0].Invocation.Argv)
}

func TestParallelListKeepsPriorityOrder(t *testing.T) {
	r := newScript()
	r.delays[backend.Apt] = 50 * time.Millisecond
	d := New(linux(backend.Builtin(), "apt", "pacman", "snap", "flatpak"), r, Options{
		Parallel:  true,
		Translate: neverSudo(),
		Run:       runner.Options{Stream: true, Stdin: strings.NewReader("")},
	})

	out := d.Dispatch(context.Background(), Request{Verb: backend.List})

	got := make([]backend.ID, 0, len(out.Results))
	for _, res := range out.Results {
		got = append(got, res.Backend.ID)
	}
	assert.Equal(t, []backend.ID{backend.Apt, backend.Pacman, backend.Snap, backend.Flatpak}, got)
	assert.Equal(t, AllSucceeded, out.Status)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.opts {
		assert.False(t, o.Stream, "parallel fan-out never streams")
		assert.Nil(t, o.Stdin)
	}
}

func TestSequentialInvocationStreams(t *testing.T) {
	r := newScript()
	d := New(linux(backend.Builtin(), "apt"), r, Options{Translate: neverSudo(), Run: runner.Options{Stream: true}})

	d.Dispatch(context.Background(), Request{Verb: backend.List})
	require.Len(t, r.opts, 1)
	assert.True(t, r.opts[0].Stream)
}

func TestFailureOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want Failure
	}{
		{nil, FailureNone},
		{fmt.Errorf("wrapped: %w", context.Canceled), Canceled},
		{&backend.Error{Op: "run", Err: fmt.Errorf("%w after 1s", backend.ErrTimeout)}, Timeout},
		{&backend.Error{Op: "run", Err: backend.ErrBackendNotFound}, BackendNotFound},
		{&backend.Error{Op: "run", Err: backend.ErrSpawnFailed}, SpawnFailed},
		{&backend.UnsupportedVerbError{Backend: "x", Verb: backend.Search}, UnsupportedVerb},
		{errors.New("exit status 3"), NonZeroExit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FailureOf(tt.err), fmt.Sprint(tt.err))
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		out  Outcome
		want int
	}{
		{"no backend", Outcome{Status: NoBackendAvailable}, 2},
		{"request error", Outcome{Status: AllFailed, Err: backend.ErrMissingQuery}, 1},
		{"single propagates", Outcome{Status: AllFailed, Single: true, Results: []Result{{Started: true, ExitCode: 42}}}, 42},
		{"single never ran", Outcome{Status: AllFailed, Single: true, Results: []Result{{ExitCode: -1}}}, 1},
		{"single killed", Outcome{Status: AllFailed, Single: true, Results: []Result{{Started: true, ExitCode: -1}}}, 1},
		{"multi success", Outcome{Status: AllSucceeded, Results: []Result{{}, {}}}, 0},
		{"multi partial", Outcome{Status: PartialSuccess, Results: []Result{{}, {}}}, 1},
		{"multi failed", Outcome{Status: AllFailed, Results: []Result{{ExitCode: 100}}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.out.ExitCode())
		})
	}
}
