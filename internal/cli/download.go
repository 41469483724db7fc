package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var downloadOutputDir string

var downloadCmd = &cobra.Command{
	Use:   "download <athlete name>",
	Short: "Download a finished training plan",
	Long: `Download the Excel workbook for a completed training-plan job.

Fails if generation is still running or the athlete has no job.

Examples:
  planforge download "Jane Doe"
  planforge download "Jane Doe" --output ./plans`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutputDir, "output", "o", ".", "directory to save the spreadsheet in")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")

	path, err := apiClient.Download(cmd.Context(), name, downloadOutputDir)
	if err != nil {
		return err
	}
	fmt.Printf("Saved training plan to %s\n", path)
	return nil
}
