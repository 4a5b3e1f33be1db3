package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/castwave/castwave/lib/config"
	"github.com/castwave/castwave/lib/util/logger"
)

var log = logger.GetCastwaveLogger()

// Persistent flag values, applied in the run functions after InitConfig so
// command-line overrides beat the launch file.
var (
	flagBaseDir  string
	flagLogLevel string
)

// newRootCommand constructs the castwave command tree. Running the bare
// root command starts the daemon, same as `castwave serve`.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "castwave",
		Short: "castwave is a self-hosted media streaming server",
		Long:  "castwave serves a personal media library over the network.\nThe daemon owns a validated configuration store under its base directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runServe()
		},
	}

	cmd.PersistentFlags().StringVar(&config.CfgFile, "config", "", "Path to the launch configuration file")
	cmd.PersistentFlags().StringVar(&flagBaseDir, "base-dir", "", "Override the castwave base directory")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log verbosity: debug, info, warn or error")

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
