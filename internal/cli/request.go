package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/planforge/planforge/internal/client"
)

var (
	requestGoals      string
	requestOutputDir  string
	requestNoDownload bool
)

var requestCmd = &cobra.Command{
	Use:   "request <athlete name>",
	Short: "Request a training plan for an athlete",
	Long: `Request generation of a one-week training plan.

The server pulls the athlete's recent Strava activity, researches workout
ideas for their dominant sport, and drafts a plan for the upcoming week.
The command waits for generation to finish and downloads the spreadsheet.

Examples:
  planforge request "Jane Doe"
  planforge request Jane Doe --goals "prepare for a spring marathon"
  planforge request "Jane Doe" --no-download
  planforge request "Jane Doe" --output ./plans`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRequest,
}

func init() {
	requestCmd.Flags().StringVarP(&requestGoals, "goals", "g", "", "training goals to steer the plan")
	requestCmd.Flags().StringVarP(&requestOutputDir, "output", "o", ".", "directory to save the spreadsheet in")
	requestCmd.Flags().BoolVar(&requestNoDownload, "no-download", false, "skip downloading the finished plan")
	rootCmd.AddCommand(requestCmd)
}

func runRequest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name := strings.Join(args, " ")

	sub, err := apiClient.Submit(ctx, name, requestGoals)
	if err != nil {
		return err
	}
	fmt.Printf("Submitted job %s for %s\n", sub.JobID, sub.AthleteName)

	var final *client.Status
	if term.IsTerminal(int(os.Stdout.Fd())) {
		final, err = runStatusProgress(apiClient, name)
	} else {
		final, err = watchPlain(cmd, name)
	}
	if err != nil {
		return err
	}
	if final == nil {
		// User backgrounded the wait; the job keeps running server-side.
		return nil
	}
	if final.Status != "completed" {
		return fmt.Errorf("generation failed: %s", final.Message)
	}

	if requestNoDownload {
		fmt.Println(final.Message)
		return nil
	}

	path, err := apiClient.Download(ctx, name, requestOutputDir)
	if err != nil {
		return fmt.Errorf("download plan: %w", err)
	}
	fmt.Printf("Saved training plan to %s\n", path)
	return nil
}

// watchPlain follows the server's status stream without a TUI, for
// non-interactive use (pipes, CI).
func watchPlain(cmd *cobra.Command, name string) (*client.Status, error) {
	var final client.Status
	err := apiClient.WatchEvents(cmd.Context(), name, func(st client.Status) error {
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", st.Status)
		}
		final = st
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("watch status: %w", err)
	}
	return &final, nil
}
