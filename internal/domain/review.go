package domain

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
)

// DateUnavailable marks timestamps that could not be resolved to a calendar date.
const DateUnavailable = "N/A"

// RawReview is one review as extracted from a page, before date normalization.
type RawReview struct {
	Author            string
	SourceURL         string
	BodyText          string
	RatingValue       float64
	RelativeTimestamp string
}

// NormalizedReview carries the absolute date ("YYYY-MM-DD" or DateUnavailable).
type NormalizedReview struct {
	RawReview
	AbsoluteDate string
}

// SentimentScore holds polarity proportions and the compound score.
type SentimentScore struct {
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// Serialize renders the score as a JSON object with neg, neu, pos and compound keys.
func (s SentimentScore) Serialize() string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

// TextFeatures is the lexical breakdown of a review body.
type TextFeatures struct {
	Tokens        []string
	BagOfWords    map[string]struct{}
	NamedEntities []string
}

// EnrichedReview is the unit persisted per review.
type EnrichedReview struct {
	NormalizedReview
	Sentiment          SentimentScore
	BagOfWordsSize     int
	NamedEntitiesCount int
}

// AggregateRecord folds the enriched reviews of one source.
type AggregateRecord struct {
	SourceName   string
	SourceURL    string
	ReviewCount  int
	MeanRating   float64
	MeanPositive float64
	MeanNeutral  float64
	MeanNegative float64
	MeanCompound float64
}

// SourceNameFromURL derives a file-friendly name from the last path segment.
func SourceNameFromURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Path != "" {
		trimmed = parsed.Path
	}
	name := path.Base(trimmed)
	if name == "." || name == "/" || name == "" {
		return "source"
	}
	return strings.ReplaceAll(name, "-", "_")
}
