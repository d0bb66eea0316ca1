package usecase

import "ReviewPipeline/internal/domain"

// Reduce folds enriched reviews into unweighted means. An empty input yields a
// zero-valued record rather than NaN.
func Reduce(sourceName, sourceURL string, reviews []domain.EnrichedReview) domain.AggregateRecord {
	record := domain.AggregateRecord{
		SourceName:  sourceName,
		SourceURL:   sourceURL,
		ReviewCount: len(reviews),
	}
	if len(reviews) == 0 {
		return record
	}

	for _, r := range reviews {
		record.MeanRating += r.RatingValue
		record.MeanPositive += r.Sentiment.Positive
		record.MeanNeutral += r.Sentiment.Neutral
		record.MeanNegative += r.Sentiment.Negative
		record.MeanCompound += r.Sentiment.Compound
	}

	n := float64(len(reviews))
	record.MeanRating /= n
	record.MeanPositive /= n
	record.MeanNeutral /= n
	record.MeanNegative /= n
	record.MeanCompound /= n
	return record
}
