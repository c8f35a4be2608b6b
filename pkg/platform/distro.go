// pkg/platform/distro.go
package platform

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/spf13/afero"

	"github.com/arc-language/minishell/pkg/backend"
)

// OSReleasePath is read to identify the Linux distribution
const OSReleasePath = "/etc/os-release"

// Distro identifies a Linux distribution from os-release
type Distro struct {
	ID   string   // e.g. "ubuntu"
	Like []string // ID_LIKE, e.g. ["debian"]
}

// release marker files consulted when os-release is missing
var releaseFiles = []struct{ path, id string }{
	{"/etc/fedora-release", "fedora"},
	{"/etc/arch-release", "arch"},
	{"/etc/SuSE-release", "opensuse"},
	{"/etc/debian_version", "debian"},
}

// native managers keyed by distro family
var families = map[string]backend.ID{
	"debian":      backend.Apt,
	"ubuntu":      backend.Apt,
	"linuxmint":   backend.Apt,
	"pop":         backend.Apt,
	"raspbian":    backend.Apt,
	"fedora":      backend.Dnf,
	"rhel":        backend.Dnf,
	"centos":      backend.Dnf,
	"rocky":       backend.Dnf,
	"almalinux":   backend.Dnf,
	"arch":        backend.Pacman,
	"manjaro":     backend.Pacman,
	"endeavouros": backend.Pacman,
	"opensuse":    backend.Zypper,
	"suse":        backend.Zypper,
	"sles":        backend.Zypper,
}

// DetectDistro reads os-release from fs. It returns the zero Distro
// when nothing identifies the system.
func DetectDistro(fs afero.Fs) Distro {
	data, err := afero.ReadFile(fs, OSReleasePath)
	if err == nil {
		return parseOSRelease(data)
	}

	for _, rf := range releaseFiles {
		if ok, _ := afero.Exists(fs, rf.path); ok {
			return Distro{ID: rf.id}
		}
	}
	return Distro{}
}

func parseOSRelease(data []byte) Distro {
	var d Distro
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		value = strings.ToLower(strings.Trim(value, `"'`))
		switch key {
		case "ID":
			d.ID = value
		case "ID_LIKE":
			d.Like = strings.Fields(value)
		}
	}
	return d
}

// Native returns the distribution's own package manager
func (d Distro) Native() (backend.ID, bool) {
	for _, name := range append([]string{d.ID}, d.Like...) {
		// opensuse-tumbleweed, opensuse-leap
		name, _, _ = strings.Cut(name, "-")
		if id, ok := families[name]; ok {
			return id, true
		}
	}
	return "", false
}

// String returns the distro ID, or "" when unknown
func (d Distro) String() string {
	return d.ID
}
