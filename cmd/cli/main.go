package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host   string
	member string
	team   string
)

var rootCmd = &cobra.Command{
	Use:   "scoretable-cli",
	Short: "A CLI to interact with the scoretable server",
	Long: `A command-line interface for making requests to the various endpoints
of the scoretable application. Scoring actions require an identity
(--member and --team), matching what the session provider would supply.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&member, "member", "", "The acting member ID")
	rootCmd.PersistentFlags().StringVar(&team, "team", "", "The acting team ID")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
