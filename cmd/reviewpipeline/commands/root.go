package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ReviewPipeline/internal/app"
	"ReviewPipeline/internal/config"
	"ReviewPipeline/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand assembles the CLI; output goes to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "reviewpipeline",
		Short:         "Collects restaurant reviews and scores their sentiment.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (defaults to $REVIEW_PIPELINE_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Overrides the configured log level.")

	root.AddCommand(newRunCommand(opts), newScrapeCommand(opts), newAnalyzeCommand(opts))
	return root
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := NewRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
	} else {
		cfg = config.Load()
	}
	if lvl := strings.TrimSpace(o.logLevel); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, nil
}

func buildApp(ctx context.Context, cfg config.Config) (*app.Application, *slog.Logger, error) {
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return application, logger, nil
}
