// pkg/platform/detect.go
package platform

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/arc-language/minishell/pkg/backend"
)

// Host describes the machine backends are probed on. Tests substitute
// the lookup function and filesystem to simulate arbitrary hosts.
type Host struct {
	Platform backend.Platform
	Arch     string
	// LookPath resolves an executable on the search path without running it
	LookPath func(file string) (string, error)
	// Fs is read for os-release. Nil skips distro detection.
	Fs afero.Fs
}

// CurrentHost returns the running system
func CurrentHost() Host {
	return Host{
		Platform: backend.PlatformFromGOOS(runtime.GOOS),
		Arch:     runtime.GOARCH,
		LookPath: exec.LookPath,
		Fs:       afero.NewOsFs(),
	}
}

// Options tune backend selection
type Options struct {
	// Priority promotes backends ahead of declaration order
	Priority []backend.ID
	// Disabled backends are never probed
	Disabled []backend.ID
	Logger   logrus.FieldLogger
}

// Inventory is the result of probing a host: the available backends in
// priority order plus what was checked to get there.
type Inventory struct {
	Platform backend.Platform
	Distro   Distro
	// Checked lists every platform candidate that was probed
	Checked backend.Set
	// Available is the resolvable subset of Checked, same order
	Available backend.Set
	// Disabled lists platform candidates skipped by configuration
	Disabled backend.Set
	paths    map[backend.ID]string
}

// Path returns the resolved executable path for an available backend
func (inv *Inventory) Path(id backend.ID) string {
	return inv.paths[id]
}

// Missing returns the candidates that did not resolve
func (inv *Inventory) Missing() backend.Set {
	return lo.Filter(inv.Checked, func(d *backend.Descriptor, _ int) bool {
		_, ok := inv.paths[d.ID]
		return !ok
	})
}

// Lookup finds an available backend by ID
func (inv *Inventory) Lookup(id backend.ID) (*backend.Descriptor, bool) {
	return inv.Available.Lookup(id)
}

// String returns a string representation of the inventory
func (inv *Inventory) String() string {
	return fmt.Sprintf("%s (available: %v, missing: %v)",
		inv.Platform, inv.Available.IDs(), inv.Missing().IDs())
}

// Detector probes a host for backends and caches the result for the
// lifetime of the process. It is not safe for concurrent use.
type Detector struct {
	set    backend.Set
	host   Host
	opts   Options
	logger logrus.FieldLogger
	cached *Inventory
}

// NewDetector creates a detector over the given descriptors
func NewDetector(set backend.Set, host Host, opts Options) *Detector {
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	if host.LookPath == nil {
		host.LookPath = exec.LookPath
	}

	return &Detector{
		set:    set,
		host:   host,
		opts:   opts,
		logger: logger,
	}
}

// Inventory returns the cached detection result, probing on first use
func (d *Detector) Inventory() *Inventory {
	if d.cached == nil {
		d.cached = d.Detect()
	}
	return d.cached
}

// Refresh discards the cache and probes again
func (d *Detector) Refresh() *Inventory {
	d.cached = d.Detect()
	return d.cached
}

// Detect probes every descriptor targeting the host platform. It only
// checks that executables resolve; nothing is spawned. An empty result
// is not an error.
func (d *Detector) Detect() *Inventory {
	inv := &Inventory{
		Platform: d.host.Platform,
		paths:    make(map[backend.ID]string),
	}

	if d.host.Platform == backend.Linux && d.host.Fs != nil {
		inv.Distro = DetectDistro(d.host.Fs)
	}
	native, _ := inv.Distro.Native()

	candidates := Rank(d.set.For(d.host.Platform), d.opts.Priority, native)
	for _, desc := range candidates {
		if lo.Contains(d.opts.Disabled, desc.ID) {
			inv.Disabled = append(inv.Disabled, desc)
			continue
		}
		inv.Checked = append(inv.Checked, desc)

		path, err := d.host.LookPath(desc.Executable)
		if err != nil {
			d.logger.WithField("backend", desc.ID).Debugf("%s not found on PATH", desc.Executable)
			continue
		}
		d.logger.WithField("backend", desc.ID).Debugf("found %s", path)
		inv.Available = append(inv.Available, desc)
		inv.paths[desc.ID] = path
	}

	d.logger.Debugf("Detected %s", inv)
	return inv
}
