package cmd

import (
	"github.com/spf13/cobra"
)

func NewRoot() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "davd",
		Short: "WebDAV server",
	}
	rootCmd.AddCommand(newServeCmd())
	return rootCmd
}
