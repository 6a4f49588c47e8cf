package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/service"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/settings"
)

func newLaunchCmd(a *app) *cobra.Command {
	var player string

	cmd := &cobra.Command{
		Use:   "launch <pack>",
		Short: "Start an installed modpack",
		Long: `Launch ensures the instance's libraries and natives, then starts the game
in offline mode. A missing required library stops the launch before java
is started.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if player == "" {
				player = a.settings.Player.Name
			}
			if err := settings.ValidatePlayerName(player); err != nil {
				return err
			}

			svc, err := a.launchService()
			if err != nil {
				return err
			}

			out := newPrinter(cmd.ErrOrStderr())
			req := service.LaunchRequest{
				Layout:           a.layout(args[0]),
				Player:           player,
				LibrariesRequest: out.librariesRequest(),
			}

			res, err := svc.Launch(cmd.Context(), req)
			if res != nil {
				out.report(res.Libraries)
			}
			if errors.Is(err, service.ErrNotInstalled) {
				return fmt.Errorf("%w (run: packlauncher install %s)", err, args[0])
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&player, "player", "p", "", "offline player name (default from settings)")
	return cmd
}
