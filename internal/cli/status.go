package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status <athlete name>",
	Short: "Show the state of an athlete's training-plan job",
	Long: `Show whether an athlete's training plan is still being generated,
finished, or failed.

Examples:
  planforge status "Jane Doe"
  planforge status "Jane Doe" --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "follow status updates until the job finishes")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name := strings.Join(args, " ")

	if statusWatch {
		final, err := watchPlain(cmd, name)
		if err != nil {
			return err
		}
		printStatus(cmd, final.Status, final.Message, final.ArtifactAvailable)
		return nil
	}

	st, err := apiClient.Status(ctx, name)
	if err != nil {
		return err
	}
	printStatus(cmd, st.Status, st.Message, st.ArtifactAvailable)
	return nil
}

func printStatus(cmd *cobra.Command, status, message string, artifact bool) {
	fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", status)
	if message != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", message)
	}
	if artifact {
		fmt.Fprintln(cmd.OutOrStdout(), "  Spreadsheet is ready for download.")
	}
}
