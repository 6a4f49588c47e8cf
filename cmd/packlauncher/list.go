package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/instance"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the modpacks in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			data := pterm.TableData{{"NAME", "TITLE", "VERSION", "MINECRAFT", "INSTALLED"}}
			for i := range catalog.Modpacks {
				pack := &catalog.Modpacks[i]
				data = append(data, []string{pack.Name, pack.DisplayName(), pack.Version, pack.Minecraft, a.installedVersion(pack.Name, pack.Version)})
			}

			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return fmt.Errorf("render catalog: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

// installedVersion describes the installed state of pack for listing.
func (a *app) installedVersion(pack, latest string) string {
	state, err := instance.LoadState(a.layout(pack))
	if err != nil {
		logger := a.logger("list")
		logger.Warn().Err(err).Str("pack", pack).Msg("unreadable instance state")
		return "?"
	}
	switch {
	case state == nil:
		return "-"
	case state.Installed(pack, latest):
		return state.PackVersion
	default:
		return state.PackVersion + " (update available)"
	}
}
