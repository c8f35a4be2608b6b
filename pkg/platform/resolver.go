// pkg/platform/resolver.go
package platform

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/arc-language/minishell/pkg/backend"
)

// Rank orders candidates for selection.
//
// Priority:
//  1. Position in the user's priority list
//  2. The distribution's native manager
//  3. Declaration order
func Rank(candidates backend.Set, priority []backend.ID, native backend.ID) backend.Set {
	type ranked struct {
		desc  *backend.Descriptor
		user  int
		local int
		decl  int
	}

	rs := make([]ranked, 0, len(candidates))
	for i, d := range candidates {
		user := lo.IndexOf(priority, d.ID)
		if user < 0 {
			user = len(priority)
		}
		local := 1
		if native != "" && d.ID == native {
			local = 0
		}
		rs = append(rs, ranked{desc: d, user: user, local: local, decl: i})
	}

	slices.SortStableFunc(rs, func(a, b ranked) int {
		return cmp.Or(
			cmp.Compare(a.user, b.user),
			cmp.Compare(a.local, b.local),
			cmp.Compare(a.decl, b.decl),
		)
	})

	return lo.Map(rs, func(r ranked, _ int) *backend.Descriptor { return r.desc })
}

// Select picks the backends that should serve a verb, in order. An
// explicit backend narrows the choice to that one. Backends lacking the
// verb are returned separately so callers can report them.
func Select(inv *Inventory, verb backend.Verb, explicit backend.ID) (eligible backend.Set, unsupported backend.Set, err error) {
	pool := inv.Available
	if explicit != "" {
		d, ok := inv.Lookup(explicit)
		if !ok {
			return nil, nil, resolveExplicitErr(inv, explicit)
		}
		pool = backend.Set{d}
	}

	for _, d := range pool {
		if d.SupportsVerb(verb) {
			eligible = append(eligible, d)
		} else {
			unsupported = append(unsupported, d)
		}
	}
	return eligible, unsupported, nil
}

func resolveExplicitErr(inv *Inventory, id backend.ID) error {
	if _, ok := inv.Checked.Lookup(id); ok {
		return &backend.Error{Op: "select", Backend: id, Err: backend.ErrBackendNotFound}
	}
	if _, ok := inv.Disabled.Lookup(id); ok {
		return &backend.Error{Op: "select", Backend: id, Err: fmt.Errorf("%w: disabled in config", backend.ErrNoBackendAvailable)}
	}
	if _, ok := backend.Builtin().Lookup(id); ok {
		return &backend.Error{Op: "select", Backend: id, Err: backend.ErrNoBackendAvailable}
	}
	return &backend.Error{Op: "select", Backend: id, Err: backend.ErrUnknownBackend}
}
