package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release identifier, overridable at build time with
// -ldflags "-X main.Version=...".
var Version = "0.3.0"

// newVersionCommand constructs `castwave version`.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the castwave version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "castwave %s\n", Version)
		},
	}
}
