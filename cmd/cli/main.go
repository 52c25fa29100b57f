package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host    string
	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "fieldrank-cli",
	Short: "A CLI to interact with the fieldrank server",
	Long: `A command-line interface for querying leaderboards, skill profiles,
outcome estimates, opponent suggestions and free court slots on a
running fieldrank server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Ask the server for debug logging of the request")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Ask the server not to write or notify")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
