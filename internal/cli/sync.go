// internal/cli/sync.go
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [url]",
		Short: "Download the package alias registry",
		Long: `Clone the alias registry repository and replace the local copy with
its deps/ directory. The url defaults to registry_url from the config, then
to the upstream registry.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var url string
			if len(args) > 0 {
				url = args[0]
			}

			var progress io.Writer
			if a.config.Debug {
				progress = cmd.ErrOrStderr()
			}
			n, err := a.manager.Sync(cmd.Context(), url, progress)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.styles.Success.Render(
				fmt.Sprintf("✓ Synced %d files into %s", n, a.manager.Registry().Dir())))
			return nil
		},
	}
}
