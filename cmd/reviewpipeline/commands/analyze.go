package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"ReviewPipeline/internal/domain"
)

func newAnalyzeCommand(root *rootOptions) *cobra.Command {
	var (
		file string
		name string
	)

	cmd := &cobra.Command{
		Use:   "analyze --file <reviews.csv>",
		Short: "Scores a previously collected review table without scraping.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return errors.New("--file is required")
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			application, _, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.Analyze(cmd.Context(), file, name)
			renderReports(cmd.OutOrStdout(), []domain.Report{report})
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV with Author, ReviewURL, Description, Rating and Date columns.")
	cmd.Flags().StringVar(&name, "name", "", "Output name (defaults to the table's URL or file name).")
	return cmd
}
