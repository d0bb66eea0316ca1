package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ReviewPipeline/internal/config"
	"ReviewPipeline/internal/domain"
)

type scrapeOptions struct {
	url        string
	name       string
	scanner    string
	maxReviews int
	sort       string
}

func newScrapeCommand(root *rootOptions) *cobra.Command {
	opts := &scrapeOptions{}

	cmd := &cobra.Command{
		Use:   "scrape --url <restaurant-url> [--max-reviews N] [--sort popular|new]",
		Short: "Collects and scores the reviews of a single restaurant page.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, err := opts.source()
			if err != nil {
				return err
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			application, logger, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			if opts.sort != "" {
				if _, ok := domain.ParseSortMode(opts.sort); !ok {
					logger.Warn("unknown sort, using popular", "sort", opts.sort)
				}
			}

			reports, runErr := application.RunSources(cmd.Context(), []domain.Source{source})
			renderReports(cmd.OutOrStdout(), reports)
			return runErr
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "Restaurant page URL.")
	cmd.Flags().StringVar(&opts.name, "name", "", "Output name (defaults to the last URL segment).")
	cmd.Flags().StringVar(&opts.scanner, "scanner", "", "Scanner strategy (defaults to zomato).")
	cmd.Flags().IntVar(&opts.maxReviews, "max-reviews", 50, "Upper bound used to size the page budget.")
	cmd.Flags().StringVar(&opts.sort, "sort", "popular", "Review order: popular or new.")
	return cmd
}

func (o *scrapeOptions) source() (domain.Source, error) {
	if o.url == "" {
		return domain.Source{}, errors.New("--url is required")
	}
	if o.maxReviews < 0 {
		return domain.Source{}, fmt.Errorf("--max-reviews must not be negative, got %d", o.maxReviews)
	}
	return config.SourceConfig{
		Name:       o.name,
		Scanner:    o.scanner,
		URL:        o.url,
		MaxReviews: o.maxReviews,
		Sort:       o.sort,
	}.Domain(), nil
}
