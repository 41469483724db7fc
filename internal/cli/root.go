// Package cli provides the command-line interface for planforge.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/planforge/planforge/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	verbose   bool

	// Shared API client, created in PersistentPreRun.
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "planforge",
	Short: "Generate weekly training plans from Strava data",
	Long: `Planforge turns an athlete's recent Strava activity into a one-week
training plan, exported as an Excel workbook.

Plan generation runs in the background on the planforge server: submit a
request, poll its status, then download the finished spreadsheet.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		apiClient = client.New(serverURL)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "planforge server URL (default $PLANFORGE_SERVER_URL or http://localhost:8000)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
