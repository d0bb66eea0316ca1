package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"

	"ReviewPipeline/internal/config"
	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/infrastructure/export"
	"ReviewPipeline/internal/infrastructure/fetcher"
	"ReviewPipeline/internal/infrastructure/parser"
	"ReviewPipeline/internal/infrastructure/storage"
	"ReviewPipeline/internal/infrastructure/telegram"
	"ReviewPipeline/internal/logging"
	"ReviewPipeline/internal/nlp"
	"ReviewPipeline/internal/ports"
	"ReviewPipeline/internal/scanner"
	"ReviewPipeline/internal/usecase"
)

// Application wires configs to use cases.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
	db       *sql.DB
}

// New builds the application: scanners, featurizer, sinks and the optional notifier.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	httpFetcher := fetcher.NewHTTPFetcher(resty.New(), cfg.Scraper.UserAgent, baseLogger.With("component", "fetcher"))
	extractor := parser.NewReviewExtractor(cfg.Scraper.TimestampSelector)

	registry := scanner.NewRegistry()
	registry.Register(parser.NewZomatoScanner(httpFetcher, extractor, parser.ZomatoOptions{
		PageSize:          cfg.Scraper.ReviewsPerPage,
		FetchTimeout:      cfg.Scraper.Timeout(),
		RequestsPerMinute: cfg.Scraper.RequestsPerMinute,
	}, baseLogger.With("component", "scanner.zomato")))

	source := parser.NewStrategySource(registry, baseLogger.With("component", "source"))

	app := &Application{cfg: cfg, logger: baseLogger}

	var (
		sinks   []ports.ReportSink
		history ports.AggregateHistory
	)
	if dir := strings.TrimSpace(cfg.Output.Directory); dir != "" {
		sinks = append(sinks, export.NewCSVSink(dir, baseLogger.With("component", "export.csv")))
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		db, err := storage.Open(cfg.Database.Driver, dsn)
		if err != nil {
			return nil, err
		}
		repo := storage.NewSQLRepository(db, cfg.Database.Driver)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		app.db = db
		sinks = append(sinks, repo)
		history = repo
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.Enabled() {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID, tg.APIBase)
	}

	app.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:      source,
		Featurizer:  nlp.NewFeaturizer(nlp.NewProseEngine()),
		Sinks:       sinks,
		Notifier:    notifier,
		History:     history,
		Logger:      baseLogger.With("component", "pipeline"),
		Concurrency: cfg.Concurrency.Sources,
	})
	return app, nil
}

// Close releases the database handle, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Run processes every configured source.
func (a *Application) Run(ctx context.Context) ([]domain.Report, error) {
	sources := make([]domain.Source, 0, len(a.cfg.Sources))
	for _, src := range a.cfg.Sources {
		sources = append(sources, src.Domain())
	}
	return a.RunSources(ctx, sources)
}

// RunSources processes the given sources. Aborted collections are reported as errors.
func (a *Application) RunSources(ctx context.Context, sources []domain.Source) ([]domain.Report, error) {
	if len(sources) == 0 {
		return nil, errors.New("no sources configured")
	}

	reports, err := a.pipeline.RunAll(ctx, sources)
	for _, report := range reports {
		if !report.Status.Succeeded() {
			err = errors.Join(err, fmt.Errorf("source %s aborted: %w", report.SourceName, report.Err))
		}
	}
	return reports, err
}

// Analyze re-enriches a previously written review table without scraping.
// An empty name falls back to the table's URL, then to the file name.
func (a *Application) Analyze(ctx context.Context, path, name string) (domain.Report, error) {
	table, err := export.ReadReviews(path)
	if err != nil {
		return domain.Report{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = analyzeName(path, table.SourceURL)
	}
	return a.pipeline.Analyze(ctx, name, table.SourceURL, table.Reviews)
}

func analyzeName(path, sourceURL string) string {
	if sourceURL != "" {
		return domain.SourceNameFromURL(sourceURL)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimSuffix(base, "_sentiment")
}
