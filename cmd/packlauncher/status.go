package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/drift"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/fetch"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/instance"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <pack>",
		Short: "Report drift between an instance, its manifest and the catalog",
		Long: `Status checks an installed instance without downloading anything. It
compares the installed pack version with the catalog and every library
the manifest names with what is on disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			layout := a.layout(name)

			state, err := instance.LoadState(layout)
			if err != nil {
				return err
			}

			// The catalog is optional here; without one only disk state is checked
			var catalogVersion string
			if a.settings.Catalog != "" {
				catalog, err := a.loadCatalog(ctx)
				if err != nil {
					return err
				}
				if pack, err := catalog.Find(name); err == nil {
					catalogVersion = pack.Version
				}
			}

			report := &drift.Report{Pack: drift.DetectPack(name, state, catalogVersion)}
			if state != nil {
				svc, err := a.librariesService()
				if err != nil {
					return err
				}
				m, source, err := svc.Resolve(ctx, layout, state.Libraries)
				if err != nil {
					return err
				}
				report.Manifest = source

				minSize := a.settings.Download.MinSize
				if minSize <= 0 {
					minSize = fetch.DefaultMinSize
				}
				report.Libraries, err = drift.DetectLibraries(m, layout.Libraries, minSize)
				if err != nil {
					return err
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), drift.FormatDriftReport(report))
			return nil
		},
	}
}
