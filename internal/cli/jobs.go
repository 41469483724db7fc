package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List training-plan jobs on the server",
	Long: `List all training-plan jobs the server knows about, most recent first.

Examples:
  planforge jobs`,
	Args: cobra.NoArgs,
	RunE: runJobs,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	jobs, err := apiClient.Jobs(cmd.Context())
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("%-10s %-25s %-12s %s\n", "ID", "ATHLETE", "STATUS", "UPDATED")
	fmt.Println("----------------------------------------------------------------")

	for _, j := range jobs {
		fmt.Printf("%-10s %-25s %-12s %s\n", j.JobID, j.AthleteName, j.Status, j.UpdatedAt)
	}

	return nil
}
