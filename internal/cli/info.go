// internal/cli/info.go
package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/arc-language/minishell/pkg/backend"
	"github.com/arc-language/minishell/pkg/registry"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info [package]",
		Short: "Show the registry aliases of a package",
		Long: `Display the alias registry entry for a package: the name each
backend knows it by. Run 'pkg sync' first to download the registry.
Without an argument every registry entry is listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := a.manager.Registry()
			if reg == nil {
				return errors.New("no registry_path configured")
			}
			if len(args) == 0 {
				return listEntries(cmd, reg)
			}
			return a.showEntry(cmd, reg, args[0])
		},
	}
}

func listEntries(cmd *cobra.Command, reg *registry.Registry) error {
	names, err := reg.Names()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d packages in %s\n", len(names), reg.Dir())
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", name)
	}
	return nil
}

func (a *app) showEntry(cmd *cobra.Command, reg *registry.Registry, name string) error {
	entry, err := reg.Load(name)
	if err != nil {
		return fmt.Errorf("getting package info: %w", err)
	}

	inv := a.manager.Inventory()
	out := cmd.OutOrStdout()

	// Display info
	fmt.Fprintf(out, "Package: %s\n", entry.Name)
	if entry.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", entry.Description)
	}
	fmt.Fprintln(out, "Backends:")
	ids := lo.Keys(entry.Backends)
	sort.Strings(ids)
	for _, id := range ids {
		line := fmt.Sprintf("  %-10s %s", id, entry.Backends[id])
		if _, ok := inv.Lookup(backend.ID(id)); ok {
			line += " " + a.styles.Success.Render("(available)")
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
