package ports

import (
	"context"
	"time"

	"ReviewPipeline/internal/domain"
)

// PageFetcher performs a single bounded page request; failures are folded into the outcome.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string, timeout time.Duration) domain.PageFetchOutcome
}

// ReviewSource collects normalized reviews for one configured source.
type ReviewSource interface {
	Collect(ctx context.Context, source domain.Source) domain.Collection
}

// Featurizer scores sentiment and extracts lexical features from a review body.
type Featurizer interface {
	Featurize(body string) (domain.SentimentScore, domain.TextFeatures, error)
}

// ReportSink persists or exports a finished report.
type ReportSink interface {
	Save(ctx context.Context, report domain.Report) error
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// AggregateHistory looks up the most recent stored aggregate of a source.
type AggregateHistory interface {
	LatestAggregate(ctx context.Context, sourceURL string) (domain.AggregateRecord, bool, error)
}
