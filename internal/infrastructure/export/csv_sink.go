package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
)

const (
	sentimentSuffix = "_sentiment.csv"
	aggregateSuffix = "_aggregated_scores.csv"
)

var (
	reviewHeader    = []string{"Author", "ReviewURL", "Description", "Rating", "Date", "Sentiment", "BagOfWordsSize", "NamedEntitiesCount"}
	aggregateHeader = []string{"Name", "URL", "Reviews", "Rating", "Positive", "Neutral", "Negative", "Compound"}
)

// CSVSink writes the review table and the aggregate row of a report into a directory.
type CSVSink struct {
	dir    string
	logger *slog.Logger
}

var _ ports.ReportSink = (*CSVSink)(nil)

// NewCSVSink creates the sink; the directory is created on first save.
func NewCSVSink(dir string, log *slog.Logger) *CSVSink {
	return &CSVSink{dir: dir, logger: log}
}

// SentimentPath is where the review table of a source lands.
func (s *CSVSink) SentimentPath(sourceName string) string {
	return filepath.Join(s.dir, sourceName+sentimentSuffix)
}

// AggregatePath is where the aggregate row of a source lands.
func (s *CSVSink) AggregatePath(sourceName string) string {
	return filepath.Join(s.dir, sourceName+aggregateSuffix)
}

// Save writes both files, replacing earlier output for the same source.
func (s *CSVSink) Save(_ context.Context, report domain.Report) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	reviewsPath := s.SentimentPath(report.SourceName)
	if err := writeCSV(reviewsPath, reviewRecords(report)); err != nil {
		return err
	}

	aggregatePath := s.AggregatePath(report.SourceName)
	if err := writeCSV(aggregatePath, aggregateRecords(report.Aggregate)); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("csv written", "reviews", reviewsPath, "aggregate", aggregatePath)
	}
	return nil
}

func reviewRecords(report domain.Report) [][]string {
	records := make([][]string, 0, len(report.Reviews)+2)
	records = append(records, []string{report.SourceURL}, reviewHeader)
	for _, review := range report.Reviews {
		records = append(records, []string{
			review.Author,
			review.SourceURL,
			review.BodyText,
			formatFloat(review.RatingValue),
			review.AbsoluteDate,
			review.Sentiment.Serialize(),
			strconv.Itoa(review.BagOfWordsSize),
			strconv.Itoa(review.NamedEntitiesCount),
		})
	}
	return records
}

func aggregateRecords(agg domain.AggregateRecord) [][]string {
	return [][]string{
		aggregateHeader,
		{
			agg.SourceName,
			agg.SourceURL,
			strconv.Itoa(agg.ReviewCount),
			formatFloat(agg.MeanRating),
			formatFloat(agg.MeanPositive),
			formatFloat(agg.MeanNeutral),
			formatFloat(agg.MeanNegative),
			formatFloat(agg.MeanCompound),
		},
	}
}

func writeCSV(path string, records [][]string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
