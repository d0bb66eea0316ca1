package commands

import (
	"github.com/spf13/cobra"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Processes every source listed in the config file.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			application, logger, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			reports, runErr := application.Run(cmd.Context())
			renderReports(cmd.OutOrStdout(), reports)
			if runErr != nil {
				logger.Error("run finished with errors", "error", runErr)
			}
			return runErr
		},
	}
}
