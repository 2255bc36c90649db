package main

import (
	"github.com/spf13/cobra"
)

// rootCmd runs the server when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "listing-sync",
	Short: "Partner listing ingestion service",
	Long: `listing-sync ingests categories and adverts from the partner API into a
document store, keeps adverts in sync on a schedule and caches the daily EUR rate.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, syncCmd)
}
