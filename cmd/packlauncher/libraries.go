package main

import (
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/instance"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/modpack"
)

func newLibrariesCmd(a *app) *cobra.Command {
	var builtin string

	cmd := &cobra.Command{
		Use:   "libraries <pack>",
		Short: "Make sure an instance's libraries and natives are present",
		Long: `Libraries walks the instance's library manifest, downloads anything that
is missing and re-extracts the platform natives. The manifest is the
instance's libraries.lua when present, otherwise the built-in manifest
recorded at install time (or --builtin).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			layout := a.layout(args[0])

			if builtin == "" {
				state, err := instance.LoadState(layout)
				if err != nil {
					return err
				}
				builtin = modpack.DefaultLibraries
				if state != nil && state.Libraries != "" {
					builtin = state.Libraries
				}
			}

			svc, err := a.librariesService()
			if err != nil {
				return err
			}
			if err := layout.EnsureDirs(); err != nil {
				return err
			}

			out := newPrinter(cmd.ErrOrStderr())
			req := out.librariesRequest()
			req.Layout = layout
			req.Builtin = builtin

			res, err := svc.Ensure(ctx, req)
			out.report(res)
			if err != nil {
				return err
			}
			out.success("libraries ready for %s (manifest %s)", args[0], res.Source)
			return nil
		},
	}

	cmd.Flags().StringVar(&builtin, "builtin", "", "built-in manifest to use when the instance has no libraries.lua")
	return cmd
}
