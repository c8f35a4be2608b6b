// pkg/backend/set.go
package backend

import (
	"fmt"
	"slices"
	"strings"
)

// Set is an ordered list of descriptors. Order is priority: the most
// canonical manager for a platform comes first.
type Set []*Descriptor

// Builtin returns the known backends in declaration order. The
// descriptors are shared and must not be modified.
func Builtin() Set {
	return Set{
		// Windows
		ChocolateyDescriptor,
		WinGetDescriptor,
		ScoopDescriptor,
		// macOS
		HomebrewDescriptor,
		MacPortsDescriptor,
		// Linux
		AptDescriptor,
		DnfDescriptor,
		PacmanDescriptor,
		ZypperDescriptor,
		// Cross-platform
		SnapDescriptor,
		FlatpakDescriptor,
	}
}

// Lookup finds a descriptor by ID, case-insensitively
func (s Set) Lookup(id ID) (*Descriptor, bool) {
	for _, d := range s {
		if strings.EqualFold(string(d.ID), string(id)) {
			return d, true
		}
	}
	return nil, false
}

// IDs returns the backend IDs in order
func (s Set) IDs() []ID {
	ids := make([]ID, 0, len(s))
	for _, d := range s {
		ids = append(ids, d.ID)
	}
	return ids
}

// For returns the descriptors that target the given platform, in order
func (s Set) For(p Platform) Set {
	var out Set
	for _, d := range s {
		if d.Supports(p) {
			out = append(out, d)
		}
	}
	return out
}

// With returns a new set with extra descriptors appended after s.
// Every extra descriptor is validated and IDs must stay unique.
func (s Set) With(extra ...*Descriptor) (Set, error) {
	out := slices.Clone(s)
	for _, d := range extra {
		if err := Validate(d); err != nil {
			return nil, err
		}
		if _, dup := out.Lookup(d.ID); dup {
			return nil, &Error{Op: "register", Backend: d.ID, Err: fmt.Errorf("%w: duplicate id", ErrInvalidDescriptor)}
		}
		out = append(out, d)
	}
	return out, nil
}

// Validate checks that a descriptor declares every verb, either with a
// non-empty template or as explicitly unsupported.
func Validate(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", ErrInvalidDescriptor)
	}
	invalid := func(format string, args ...any) error {
		return &Error{Op: "validate", Backend: d.ID, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalidDescriptor}, args...)...)}
	}

	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDescriptor)
	}
	if d.Executable == "" {
		return invalid("missing executable")
	}
	if len(d.Platforms) == 0 {
		return invalid("no platforms")
	}

	for _, v := range Verbs {
		t, ok := d.Templates[v]
		if !ok {
			return invalid("verb %s is neither templated nor marked unsupported", v)
		}
		if t.Unsupported {
			continue
		}
		if len(t.Args) == 0 {
			return invalid("verb %s has an empty argument list", v)
		}

		switch v {
		case Install, Search:
			if !t.NeedsQuery() {
				return invalid("verb %s must contain %s", v, Placeholder)
			}
		case Update:
			if !t.NeedsQuery() {
				return invalid("verb %s must contain %s", v, Placeholder)
			}
			if len(t.All) == 0 {
				return invalid("verb %s has no update-all form", v)
			}
		case List:
			if t.NeedsQuery() {
				return invalid("verb %s takes no query", v)
			}
		}
	}

	return nil
}
