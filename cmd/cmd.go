package cmd

import (
	"github.com/dreamerjackson/extractra/cmd/server"
	"github.com/dreamerjackson/extractra/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version.",
	Long:  "print version.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version.Printer()
	},
}

func Execute() {
	var rootCmd = &cobra.Command{Use: "extractra"}
	rootCmd.AddCommand(server.ServerCmd, versionCmd)
	rootCmd.Execute()
}
