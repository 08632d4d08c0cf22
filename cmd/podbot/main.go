package main

import (
	"os"

	"github.com/edhtools/podbot/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Version: version.Version,
	Use:     "podbot",
	Short:   "Tracks free-for-all pod tournaments for chat guilds",
}

func main() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(standingsCmd)
	rootCmd.AddCommand(yappersCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
