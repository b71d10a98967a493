package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgao/shoplog/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "shoplog %s %s\n", version.String(), version.GoVersion())
	},
}
