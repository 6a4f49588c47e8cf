package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/logging"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/platform"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/settings"
)

// app carries state shared by every command.
type app struct {
	verbosity  int
	configPath string

	settings  *settings.Settings
	detector  platform.Detector
	logCloser io.Closer
}

func (a *app) logger(component string) zerolog.Logger {
	return logging.GetLogger(component)
}

func newApp() *app {
	return &app{detector: platform.NewDetector()}
}

// Close flushes and closes the log file. It is safe to call more than once.
func (a *app) Close() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "packlauncher",
		Short: "Install and launch Minecraft modpacks",
		Long: `packlauncher installs modpacks from a catalog, makes sure every Forge and
LWJGL library they need is present, extracts platform natives and starts
the game.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load(a.configPath)
			if err != nil {
				// Still log to the console so the failure is visible at -v
				logging.SetupLogger(logging.Options{Verbosity: a.verbosity})
				return err
			}
			a.settings = s

			opts := logging.Options{Verbosity: a.verbosity}
			if s.Log.File {
				opts.LogFile = s.LogPath()
			}
			a.logCloser = logging.SetupLogger(opts)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "settings file (default is $XDG_CONFIG_HOME/packlauncher/config.toml)")

	rootCmd.AddCommand(
		newListCmd(a),
		newInstallCmd(a),
		newLibrariesCmd(a),
		newLaunchCmd(a),
		newStatusCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Skip settings so version works with a broken config
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "packlauncher version %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
