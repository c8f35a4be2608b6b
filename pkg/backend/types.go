// pkg/backend/types.go
package backend

import (
	"slices"
	"strings"
)

// ID identifies a package manager backend
type ID string

const (
	// Chocolatey is the Chocolatey package manager for Windows
	Chocolatey ID = "chocolatey"
	// WinGet is the Windows Package Manager
	WinGet ID = "winget"
	// Scoop is the Scoop command-line installer for Windows
	Scoop ID = "scoop"
	// Homebrew is the Homebrew package manager
	Homebrew ID = "homebrew"
	// MacPorts is the MacPorts package manager
	MacPorts ID = "macports"
	// Apt is the Debian/Ubuntu package manager
	Apt ID = "apt"
	// Dnf is the Fedora/RHEL package manager
	Dnf ID = "dnf"
	// Pacman is the Arch Linux package manager
	Pacman ID = "pacman"
	// Zypper is the openSUSE package manager
	Zypper ID = "zypper"
	// Snap is the cross-distribution snap package manager
	Snap ID = "snap"
	// Flatpak is the cross-distribution Flatpak package manager
	Flatpak ID = "flatpak"
)

// Platform is a host operating system family a backend can run on
type Platform string

const (
	Windows Platform = "windows"
	MacOS   Platform = "macos"
	Linux   Platform = "linux"
	// Unknown is reported for hosts no descriptor targets (e.g. freebsd)
	Unknown Platform = "unknown"
)

// PlatformFromGOOS maps a runtime.GOOS value to a Platform
func PlatformFromGOOS(goos string) Platform {
	switch goos {
	case "windows":
		return Windows
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// DisplayName returns the human form used in banners ("MacOS", "Linux").
func (p Platform) DisplayName() string {
	switch p {
	case Windows:
		return "Windows"
	case MacOS:
		return "MacOS"
	case Linux:
		return "Linux"
	default:
		return "Unknown"
	}
}

// Verb is one of the generic package operations
type Verb string

const (
	Install Verb = "install"
	Search  Verb = "search"
	Update  Verb = "update"
	List    Verb = "list"
)

// Verbs lists every verb a descriptor must declare
var Verbs = []Verb{Install, Search, Update, List}

var verbAliases = map[string]Verb{
	"install": Install,
	"i":       Install,
	"search":  Search,
	"s":       Search,
	"update":  Update,
	"u":       Update,
	"upgrade": Update,
	"list":    List,
	"ls":      List,
}

// ParseVerb resolves a verb name or one of its short aliases
func ParseVerb(s string) (Verb, bool) {
	v, ok := verbAliases[strings.ToLower(s)]
	return v, ok
}

// Placeholder marks the argv slot that receives the request query
const Placeholder = "{pkg}"

// Template is the argument list for one verb of one backend
type Template struct {
	// Args follows the executable name. It may contain Placeholder.
	Args []string
	// All is used when the verb runs without a query (update everything).
	All []string
	// Unsupported marks a verb the backend has no native equivalent for.
	Unsupported bool
}

// NeedsQuery reports whether Args carries the placeholder
func (t Template) NeedsQuery() bool {
	return slices.Contains(t.Args, Placeholder)
}

// Descriptor is the static metadata for one package manager
type Descriptor struct {
	ID         ID
	Name       string
	Executable string
	Platforms  []Platform
	Templates  map[Verb]Template

	// Privileged backends modify system state and need root for
	// install and update on Unix hosts.
	Privileged bool

	// NoMatch holds stdout fragments a backend prints when a search
	// finds nothing but still exits 0.
	NoMatch []string
	// IgnoreLines holds stdout line prefixes that are banner noise and
	// do not count as search results.
	IgnoreLines []string
}

// String returns the backend ID
func (d *Descriptor) String() string {
	return string(d.ID)
}

// Supports reports whether the backend targets the given platform
func (d *Descriptor) Supports(p Platform) bool {
	return slices.Contains(d.Platforms, p)
}

// Template returns the template for a verb. A verb marked unsupported
// yields an *UnsupportedVerbError.
func (d *Descriptor) Template(v Verb) (Template, error) {
	t, ok := d.Templates[v]
	if !ok {
		return Template{}, &Error{Op: "template " + string(v), Backend: d.ID, Err: ErrInvalidDescriptor}
	}
	if t.Unsupported {
		return Template{}, &UnsupportedVerbError{Backend: d.ID, Verb: v}
	}
	return t, nil
}

// SupportsVerb reports whether the backend has a usable template for v
func (d *Descriptor) SupportsVerb(v Verb) bool {
	_, err := d.Template(v)
	return err == nil
}

// HasMatches reports whether search output contains at least one result
// line once banner noise is stripped.
func (d *Descriptor) HasMatches(stdout string) bool {
	for _, marker := range d.NoMatch {
		if strings.Contains(stdout, marker) {
			return false
		}
	}

	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || d.ignored(line) {
			continue
		}
		return true
	}
	return false
}

func (d *Descriptor) ignored(line string) bool {
	for _, prefix := range d.IgnoreLines {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
