package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "maubot-operator",
	Short: "maubot-operator - Keeps a maubot deployment configured and running",
	Long: `maubot-operator watches the facts its environment provides (database
credentials, Matrix homeserver, ingress, log forwarding) and keeps the
maubot workload container configured to match them.

The runtime delivers lifecycle events over the operator API; each event
triggers one reconciliation, and the resulting unit status tells the
runtime whether the workload is active, waiting, or blocked.`,
	Version: Version,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("maubot-operator version %s\nCommit: %s\nBuilt: %s\n",
			Version, Commit, BuildTime)
	},
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"maubot-operator version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(versionCmd)
}
