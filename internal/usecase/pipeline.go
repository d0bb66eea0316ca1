package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.ReviewSource
	Featurizer ports.Featurizer
	Sinks      []ports.ReportSink
	Notifier   ports.Notifier
	// History supplies the previous aggregate of a source for the digest.
	History    ports.AggregateHistory
	Logger     *slog.Logger
	// Concurrency bounds how many sources RunAll processes at once.
	Concurrency int
}

// Pipeline implements the review ingestion and enrichment workflow.
type Pipeline struct {
	source      ports.ReviewSource
	featurizer  ports.Featurizer
	sinks       []ports.ReportSink
	notifier    ports.Notifier
	history     ports.AggregateHistory
	logger      *slog.Logger
	concurrency int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		source:      deps.Source,
		featurizer:  deps.Featurizer,
		sinks:       deps.Sinks,
		notifier:    deps.Notifier,
		history:     deps.History,
		logger:      deps.Logger,
		concurrency: concurrency,
	}
}

// Run collects, enriches and persists one source. An aborted collection is
// returned with an empty review set and its status; it is not written to sinks.
// Errors are reserved for sink and notification failures.
func (p *Pipeline) Run(ctx context.Context, source domain.Source) (domain.Report, error) {
	if p.source == nil {
		return domain.Report{}, fmt.Errorf("review source is not configured")
	}

	name := source.Name
	if strings.TrimSpace(name) == "" {
		name = domain.SourceNameFromURL(source.URL)
	}

	collection := p.source.Collect(ctx, source)
	if !collection.Status.Succeeded() {
		p.logError("collection aborted, no reviews kept", "source", name, "error", collection.Err)
		return domain.Report{
			SourceName: name,
			SourceURL:  source.URL,
			Status:     domain.StatusAborted,
			Aggregate:  Reduce(name, source.URL, nil),
			Err:        collection.Err,
		}, nil
	}

	report := p.Enrich(name, source.URL, collection.Reviews)
	report.Status = collection.Status
	p.info("source enriched",
		"source", name,
		"status", report.Status,
		"reviews", len(report.Reviews),
		"skipped", report.Skipped,
		"pages_fetched", collection.PagesFetched,
		"pages_skipped", collection.PagesSkipped,
	)

	if err := p.publish(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}

// RunAll processes independent sources concurrently; each source owns its own
// collection state.
func (p *Pipeline) RunAll(ctx context.Context, sources []domain.Source) ([]domain.Report, error) {
	reports := make([]domain.Report, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			reports[i], errs[i] = p.Run(gctx, source)
			return nil
		})
	}
	_ = g.Wait()

	return reports, errors.Join(errs...)
}

// Analyze enriches an already collected review table and publishes it like a
// completed run.
func (p *Pipeline) Analyze(ctx context.Context, sourceName, sourceURL string, reviews []domain.NormalizedReview) (domain.Report, error) {
	report := p.Enrich(sourceName, sourceURL, reviews)
	p.info("table analyzed", "source", sourceName, "reviews", len(report.Reviews), "skipped", report.Skipped)

	if err := p.publish(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}

// Enrich featurizes reviews and folds them into a report. Reviews with blank
// bodies are counted in Skipped and left out of the aggregate.
func (p *Pipeline) Enrich(sourceName, sourceURL string, reviews []domain.NormalizedReview) domain.Report {
	report := domain.Report{
		SourceName: sourceName,
		SourceURL:  sourceURL,
		Status:     domain.StatusCompleted,
		Reviews:    make([]domain.EnrichedReview, 0, len(reviews)),
	}

	for _, review := range reviews {
		if p.featurizer == nil {
			report.Skipped++
			continue
		}

		sentiment, features, err := p.featurizer.Featurize(review.BodyText)
		if err != nil {
			report.Skipped++
			p.warn("review skipped", "source", sourceName, "author", review.Author, "error", err)
			continue
		}

		report.Reviews = append(report.Reviews, domain.EnrichedReview{
			NormalizedReview:   review,
			Sentiment:          sentiment,
			BagOfWordsSize:     len(features.BagOfWords),
			NamedEntitiesCount: len(features.NamedEntities),
		})
	}

	report.Aggregate = Reduce(sourceName, sourceURL, report.Reviews)
	return report
}

func (p *Pipeline) publish(ctx context.Context, report domain.Report) error {
	previous := p.previousAggregate(ctx, report.SourceURL)

	for _, sink := range p.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Save(ctx, report); err != nil {
			return fmt.Errorf("save report %s: %w", report.SourceName, err)
		}
	}

	if p.notifier == nil {
		return nil
	}
	if err := p.notifier.PublishDigest(ctx, BuildDigest(report, previous)); err != nil {
		return fmt.Errorf("notify %s: %w", report.SourceName, err)
	}
	return nil
}

// previousAggregate is looked up before the sinks run so it reflects the prior run.
func (p *Pipeline) previousAggregate(ctx context.Context, sourceURL string) *domain.AggregateRecord {
	if p.history == nil || p.notifier == nil || sourceURL == "" {
		return nil
	}
	agg, found, err := p.history.LatestAggregate(ctx, sourceURL)
	if err != nil {
		p.warn("previous aggregate unavailable", "url", sourceURL, "error", err)
		return nil
	}
	if !found {
		return nil
	}
	return &agg
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// EscapeMarkdown escapes the characters Telegram's legacy Markdown treats as entity delimiters.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// BuildDigest renders a short Markdown summary of a report. Only the title is
// formatted; interpolated values are escaped. A non-nil previous adds the
// compound and rating change since that run.
func BuildDigest(report domain.Report, previous *domain.AggregateRecord) string {
	agg := report.Aggregate

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", EscapeMarkdown(report.SourceName))
	fmt.Fprintf(&b, "%s\n", EscapeMarkdown(report.SourceURL))
	fmt.Fprintf(&b, "Status: %s\n", EscapeMarkdown(string(report.Status)))
	fmt.Fprintf(&b, "Reviews: %d (skipped %d)\n", agg.ReviewCount, report.Skipped)
	fmt.Fprintf(&b, "Rating: %.2f\n", agg.MeanRating)
	fmt.Fprintf(&b, "Positive: %.2f  Neutral: %.2f  Negative: %.2f\n", agg.MeanPositive, agg.MeanNeutral, agg.MeanNegative)
	fmt.Fprintf(&b, "Compound: %.2f\n", agg.MeanCompound)
	if previous != nil {
		fmt.Fprintf(&b, "Since last run: compound %+.2f, rating %+.2f\n",
			agg.MeanCompound-previous.MeanCompound,
			agg.MeanRating-previous.MeanRating,
		)
	}
	return b.String()
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) logError(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
