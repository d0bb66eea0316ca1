package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/nlp"
	"ReviewPipeline/internal/ports"
)

type stubSource struct {
	collections map[string]domain.Collection
}

func (s *stubSource) Collect(_ context.Context, source domain.Source) domain.Collection {
	return s.collections[source.URL]
}

type wordCountFeaturizer struct{}

func (wordCountFeaturizer) Featurize(body string) (domain.SentimentScore, domain.TextFeatures, error) {
	if strings.TrimSpace(body) == "" {
		return domain.SentimentScore{}, domain.TextFeatures{}, nlp.ErrEmptyText
	}
	bag := map[string]struct{}{}
	for _, w := range strings.Fields(body) {
		bag[strings.ToLower(w)] = struct{}{}
	}
	return domain.SentimentScore{Positive: 0.5, Neutral: 0.5, Compound: 0.5},
		domain.TextFeatures{Tokens: strings.Fields(body), BagOfWords: bag, NamedEntities: []string{"x"}},
		nil
}

type recordingSink struct {
	mu      sync.Mutex
	reports []domain.Report
	err     error
}

func (s *recordingSink) Save(_ context.Context, report domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return s.err
}

type recordingNotifier struct {
	digests []string
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.digests = append(n.digests, digest)
	return nil
}

func review(author, body string, rating float64) domain.NormalizedReview {
	return domain.NormalizedReview{
		RawReview:    domain.RawReview{Author: author, BodyText: body, RatingValue: rating, RelativeTimestamp: "yesterday"},
		AbsoluteDate: "2024-06-09",
	}
}

func TestPipelineRunEnrichesAndPublishes(t *testing.T) {
	t.Parallel()

	source := &stubSource{collections: map[string]domain.Collection{
		"https://example.org/delhi/cafe-one": {
			Status: domain.StatusStoppedDuplicate,
			Reviews: []domain.NormalizedReview{
				review("a", "good good food", 4),
				review("b", "   ", 1),
				review("c", "slow service here", 2),
			},
		},
	}}
	sink := &recordingSink{}
	notifier := &recordingNotifier{}

	p := NewPipeline(PipelineDeps{
		Source:     source,
		Featurizer: wordCountFeaturizer{},
		Sinks:      []ports.ReportSink{sink},
		Notifier:   notifier,
	})

	report, err := p.Run(context.Background(), domain.Source{URL: "https://example.org/delhi/cafe-one", MaxReviews: 10})
	require.NoError(t, err)

	require.Equal(t, "cafe_one", report.SourceName)
	require.Equal(t, domain.StatusStoppedDuplicate, report.Status)
	require.Len(t, report.Reviews, 2)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 2, report.Reviews[0].BagOfWordsSize)
	require.Equal(t, 1, report.Reviews[0].NamedEntitiesCount)
	require.Equal(t, 2, report.Aggregate.ReviewCount)
	require.InDelta(t, 3.0, report.Aggregate.MeanRating, 1e-9)

	require.Len(t, sink.reports, 1)
	require.Len(t, notifier.digests, 1)
	require.Contains(t, notifier.digests[0], `*cafe\_one*`)
	require.Contains(t, notifier.digests[0], "Reviews: 2 (skipped 1)")
}

func TestPipelineRunAbortedIsEmptyAndUnpublished(t *testing.T) {
	t.Parallel()

	source := &stubSource{collections: map[string]domain.Collection{
		"u": {Status: domain.StatusAborted, Err: errors.New("503")},
	}}
	sink := &recordingSink{}

	p := NewPipeline(PipelineDeps{Source: source, Featurizer: wordCountFeaturizer{}, Sinks: []ports.ReportSink{sink}})

	report, err := p.Run(context.Background(), domain.Source{Name: "cafe", URL: "u"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusAborted, report.Status)
	require.Empty(t, report.Reviews)
	require.Error(t, report.Err)
	require.Equal(t, 0, report.Aggregate.ReviewCount)
	require.Empty(t, sink.reports)
}

func TestPipelineRunSinkFailure(t *testing.T) {
	t.Parallel()

	source := &stubSource{collections: map[string]domain.Collection{
		"u": {Status: domain.StatusCompleted, Reviews: []domain.NormalizedReview{review("a", "fine", 3)}},
	}}
	sink := &recordingSink{err: errors.New("disk full")}

	p := NewPipeline(PipelineDeps{Source: source, Featurizer: wordCountFeaturizer{}, Sinks: []ports.ReportSink{sink}})

	report, err := p.Run(context.Background(), domain.Source{Name: "cafe", URL: "u"})
	require.ErrorContains(t, err, "disk full")
	require.Len(t, report.Reviews, 1)
}

func TestPipelineRunAll(t *testing.T) {
	t.Parallel()

	collections := map[string]domain.Collection{}
	var sources []domain.Source
	for i := 0; i < 4; i++ {
		u := fmt.Sprintf("https://example.org/city/place-%d", i)
		collections[u] = domain.Collection{Status: domain.StatusCompleted, Reviews: []domain.NormalizedReview{review("a", "nice", float64(i))}}
		sources = append(sources, domain.Source{URL: u})
	}
	sink := &recordingSink{}

	p := NewPipeline(PipelineDeps{
		Source:      &stubSource{collections: collections},
		Featurizer:  wordCountFeaturizer{},
		Sinks:       []ports.ReportSink{sink},
		Concurrency: 2,
	})

	reports, err := p.RunAll(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, reports, 4)
	for i, report := range reports {
		require.Equal(t, fmt.Sprintf("place_%d", i), report.SourceName)
		require.InDelta(t, float64(i), report.Aggregate.MeanRating, 1e-9)
	}
	require.Len(t, sink.reports, 4)
}

func TestEnrichWithoutFeaturizerSkipsEverything(t *testing.T) {
	t.Parallel()

	report := NewPipeline(PipelineDeps{}).Enrich("cafe", "u", []domain.NormalizedReview{review("a", "ok", 1)})

	require.Empty(t, report.Reviews)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 0, report.Aggregate.ReviewCount)
}

func TestPipelineAnalyzePublishesCompletedReport(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	pipeline := NewPipeline(PipelineDeps{
		Featurizer: wordCountFeaturizer{},
		Sinks:      []ports.ReportSink{sink},
	})

	report, err := pipeline.Analyze(context.Background(), "cafe_one", "https://example.org/delhi/cafe-one", []domain.NormalizedReview{
		review("a", "good food", 4),
		review("b", "", 2),
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, report.Status)
	require.Len(t, report.Reviews, 1)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 1, report.Aggregate.ReviewCount)
	require.InDelta(t, 4.0, report.Aggregate.MeanRating, 1e-9)
	require.Len(t, sink.reports, 1)
}

type stubHistory struct {
	record domain.AggregateRecord
	found  bool
	err    error
}

func (h *stubHistory) LatestAggregate(context.Context, string) (domain.AggregateRecord, bool, error) {
	return h.record, h.found, h.err
}

// unescapedMarkdown counts Markdown delimiters not preceded by a backslash.
func unescapedMarkdown(text string) int {
	count := 0
	escaped := false
	for _, r := range text {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case strings.ContainsRune("_*`[", r):
			count++
		}
	}
	return count
}

func TestBuildDigestEscapesInterpolatedValues(t *testing.T) {
	t.Parallel()

	report := domain.Report{
		SourceName: domain.SourceNameFromURL("https://www.zomato.com/ncr/big-chill-cafe"),
		SourceURL:  "https://www.zomato.com/ncr/big-chill-cafe?ref=a_b*c`d[e",
		Status:     domain.StatusStoppedDuplicate,
		Aggregate:  domain.AggregateRecord{ReviewCount: 3, MeanRating: 4, MeanCompound: 0.25},
	}

	digest := BuildDigest(report, nil)
	title, body, ok := strings.Cut(digest, "\n")
	require.True(t, ok)

	require.Equal(t, `*big\_chill\_cafe*`, title)
	require.Equal(t, 2, unescapedMarkdown(title))
	require.Zero(t, unescapedMarkdown(body), body)
	require.Contains(t, body, `Status: stopped\_duplicate`)
	require.NotContains(t, body, "Since last run")
}

func TestBuildDigestWithPreviousAggregate(t *testing.T) {
	t.Parallel()

	report := domain.Report{
		SourceName: "cafe",
		Status:     domain.StatusCompleted,
		Aggregate:  domain.AggregateRecord{MeanRating: 4, MeanCompound: 0.5},
	}
	digest := BuildDigest(report, &domain.AggregateRecord{MeanRating: 3.5, MeanCompound: 0.75})
	require.Contains(t, digest, "Since last run: compound -0.25, rating +0.50")
}

func TestPipelineRunDigestUsesHistory(t *testing.T) {
	t.Parallel()

	source := &stubSource{collections: map[string]domain.Collection{
		"https://example.org/delhi/cafe-one": {
			Status:  domain.StatusCompleted,
			Reviews: []domain.NormalizedReview{review("a", "good food", 4)},
		},
	}}

	cases := []struct {
		name    string
		history *stubHistory
		want    bool
	}{
		{name: "previous run", history: &stubHistory{found: true, record: domain.AggregateRecord{MeanRating: 3, MeanCompound: 0.5}}, want: true},
		{name: "first run", history: &stubHistory{}, want: false},
		{name: "lookup failure", history: &stubHistory{err: errors.New("db down")}, want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			notifier := &recordingNotifier{}
			p := NewPipeline(PipelineDeps{
				Source:     source,
				Featurizer: wordCountFeaturizer{},
				Notifier:   notifier,
				History:    tc.history,
			})

			_, err := p.Run(context.Background(), domain.Source{URL: "https://example.org/delhi/cafe-one", MaxReviews: 5})
			require.NoError(t, err)
			require.Len(t, notifier.digests, 1)
			if tc.want {
				require.Contains(t, notifier.digests[0], "Since last run: compound +0.00, rating +1.00")
			} else {
				require.NotContains(t, notifier.digests[0], "Since last run")
			}
		})
	}
}
