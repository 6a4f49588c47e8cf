package main

import (
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/logging"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/service"
)

func newInstallCmd(a *app) *cobra.Command {
	var (
		force         bool
		skipLibraries bool
	)

	cmd := &cobra.Command{
		Use:   "install <pack>",
		Short: "Install a modpack and its libraries",
		Long: `Install downloads the pack archive named in the catalog, verifies it,
unpacks it into the pack's instance directory and then makes sure every
library and native it needs is present.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			done := logging.LogOperationStart(a.logger("install").With().Str("pack", args[0]).Logger(), "install")
			defer done()

			catalog, err := a.loadCatalog(ctx)
			if err != nil {
				return err
			}
			svc, err := a.installService(force)
			if err != nil {
				return err
			}

			out := newPrinter(cmd.ErrOrStderr())
			res, err := svc.Install(ctx, service.InstallRequest{
				Catalog:          catalog,
				Pack:             args[0],
				SkipLibraries:    skipLibraries,
				LibrariesRequest: out.librariesRequest(),
			})
			if res != nil {
				out.report(res.Libraries)
			}
			if err != nil {
				return err
			}

			if res.Archive.Skipped {
				out.success("%s %s is already installed in %s", res.Pack.Name, res.Pack.Version, res.Layout.Root)
				return nil
			}
			out.success("installed %s %s into %s", res.Pack.Name, res.Pack.Version, res.Layout.Root)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "reinstall even if this version is already installed")
	cmd.Flags().BoolVar(&skipLibraries, "skip-libraries", false, "install the pack archive only")
	return cmd
}
