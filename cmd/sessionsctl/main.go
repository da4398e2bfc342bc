package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sessionsctl",
	Short: "Operational tool for the sessions API",
	Long: `sessionsctl loads and inspects the conference session store used by the
sessions API. It reads the same environment variables as the server.

Examples:
  sessionsctl seed --file data/sessions.json
  sessionsctl seed --file data/sessions.yaml --backend postgres
  sessionsctl seed --file data/sessions.json --dry-run
  sessionsctl fetch-transcripts --overwrite
  sessionsctl config validate`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sessionsctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(fetchTranscriptsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}
