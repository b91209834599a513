package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for playcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playcrawl",
		Short: "Crawl Play Store search results into a file",
		Long: `playcrawl searches the Play Store for each keyword, follows the search
result pages and loads every app detail page it finds.

Items are written to a CSV or JSON Lines file and every run is recorded in
a local SQLite database that can be browsed with "playcrawl history".`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
