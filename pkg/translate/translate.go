// pkg/translate/translate.go
package translate

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/arc-language/minishell/pkg/backend"
)

// SudoPolicy controls privilege escalation for system package managers
type SudoPolicy string

const (
	// SudoAuto escalates privileged backends when not running as root
	SudoAuto SudoPolicy = "auto"
	// SudoAlways escalates every install and update when not running as root
	SudoAlways SudoPolicy = "always"
	// SudoNever runs backends as the current user
	SudoNever SudoPolicy = "never"
)

// ParseSudoPolicy validates a policy name. Empty means auto.
func ParseSudoPolicy(s string) (SudoPolicy, error) {
	switch p := SudoPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return SudoAuto, nil
	case SudoAuto, SudoAlways, SudoNever:
		return p, nil
	default:
		return "", fmt.Errorf("invalid sudo policy %q (want auto, always or never)", s)
	}
}

// Options carry host facts the translation depends on
type Options struct {
	// Path is the resolved executable. Empty uses the descriptor's name.
	Path     string
	Platform backend.Platform
	Sudo     SudoPolicy
	// Geteuid defaults to os.Geteuid
	Geteuid func() int
	// LookPath resolves sudo. Defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

// Invocation is a ready-to-spawn argument vector for one backend
type Invocation struct {
	Backend backend.ID
	// Argv[0] is the program to start
	Argv []string
	// Elevated is set when Argv was prefixed with sudo
	Elevated bool
}

// Program returns the executable to start
func (inv Invocation) Program() string {
	if len(inv.Argv) == 0 {
		return ""
	}
	return inv.Argv[0]
}

// Args returns the arguments after the program
func (inv Invocation) Args() []string {
	if len(inv.Argv) < 2 {
		return nil
	}
	return inv.Argv[1:]
}

// String renders the argv the way a user would type it
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Argv))
	for _, a := range inv.Argv {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", a)
		}
		parts = append(parts, q)
	}
	return strings.Join(parts, " ")
}

// Translate maps a generic verb and query onto the descriptor's argument
// template. The query is substituted as one argv element and is never
// interpreted by a shell.
func Translate(verb backend.Verb, query string, desc *backend.Descriptor, opts Options) (Invocation, error) {
	tmpl, err := desc.Template(verb)
	if err != nil {
		return Invocation{}, err
	}

	args := tmpl.Args
	if query == "" && tmpl.NeedsQuery() {
		if verb != backend.Update || len(tmpl.All) == 0 {
			return Invocation{}, &backend.Error{Op: string(verb), Backend: desc.ID, Err: backend.ErrMissingQuery}
		}
		args = tmpl.All
	}

	program := opts.Path
	if program == "" {
		program = desc.Executable
	}

	argv := make([]string, 0, len(args)+2)
	argv = append(argv, program)
	for _, a := range args {
		if a == backend.Placeholder {
			a = query
		}
		argv = append(argv, a)
	}

	inv := Invocation{Backend: desc.ID, Argv: argv}
	if sudo, ok := escalate(verb, desc, opts); ok {
		inv.Argv = append([]string{sudo}, argv...)
		inv.Elevated = true
	}
	return inv, nil
}

// escalate returns the sudo path when the invocation should run as root
func escalate(verb backend.Verb, desc *backend.Descriptor, opts Options) (string, bool) {
	if verb != backend.Install && verb != backend.Update {
		return "", false
	}
	switch opts.Sudo {
	case SudoNever:
		return "", false
	case SudoAlways:
	default:
		if !desc.Privileged {
			return "", false
		}
	}
	if opts.Platform != backend.Linux && opts.Platform != backend.MacOS {
		return "", false
	}

	geteuid := opts.Geteuid
	if geteuid == nil {
		geteuid = os.Geteuid
	}
	if geteuid() == 0 {
		return "", false
	}

	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath("sudo")
	if err != nil {
		return "", false
	}
	return path, true
}
