package parser

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/titanous/json5"

	"ReviewPipeline/internal/domain"
)

// DefaultTimestampSelector matches the relative time labels rendered next to each review.
const DefaultTimestampSelector = "p.time-stamp"

const structuredDataSelector = `script[type="application/ld+json"]`

// ReviewExtractor turns a review page into raw reviews.
type ReviewExtractor struct {
	timestampSelector string
}

// NewReviewExtractor builds an extractor; an empty selector falls back to DefaultTimestampSelector.
func NewReviewExtractor(timestampSelector string) *ReviewExtractor {
	if strings.TrimSpace(timestampSelector) == "" {
		timestampSelector = DefaultTimestampSelector
	}
	return &ReviewExtractor{timestampSelector: timestampSelector}
}

type ldReview struct {
	Author       json.RawMessage `json:"author"`
	URL          *string         `json:"url"`
	Description  *string         `json:"description"`
	ReviewRating *struct {
		RatingValue json.RawMessage `json:"ratingValue"`
	} `json:"reviewRating"`
}

type ldDocument struct {
	Reviews *[]ldReview `json:"reviews"`
}

// Extract returns the page's reviews in page order. It returns nil when the
// structured data block is missing or any review lacks a required key.
func (e *ReviewExtractor) Extract(html []byte) []domain.RawReview {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}

	entries, ok := findReviewBlock(doc)
	if !ok || len(entries) == 0 {
		return nil
	}

	reviews := make([]domain.RawReview, 0, len(entries))
	for _, entry := range entries {
		review, ok := toRawReview(entry)
		if !ok {
			return nil
		}
		reviews = append(reviews, review)
	}

	labels := make([]string, 0, len(reviews))
	doc.Find(e.timestampSelector).Each(func(_ int, s *goquery.Selection) {
		labels = append(labels, strings.TrimSpace(s.Text()))
	})

	stamps := alignTimestamps(len(reviews), labels)
	for i := range reviews {
		reviews[i].RelativeTimestamp = stamps[i]
	}

	return reviews
}

// alignTimestamps pairs labels with reviews by position; missing labels become
// domain.DateUnavailable and surplus labels are dropped.
func alignTimestamps(count int, labels []string) []string {
	out := make([]string, count)
	for i := range out {
		if i < len(labels) && labels[i] != "" {
			out[i] = labels[i]
			continue
		}
		out[i] = domain.DateUnavailable
	}
	return out
}

func findReviewBlock(doc *goquery.Document) ([]ldReview, bool) {
	var (
		entries []ldReview
		found   bool
	)

	doc.Find(structuredDataSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}

		block, ok := decodeBlock([]byte(raw))
		if !ok || block.Reviews == nil {
			return true
		}

		entries = *block.Reviews
		found = true
		return false
	})

	return entries, found
}

// decodeBlock accepts strict JSON first and falls back to JSON5 for blocks with
// trailing commas, single quotes or bare keys.
func decodeBlock(raw []byte) (ldDocument, bool) {
	var block ldDocument
	if err := json.Unmarshal(raw, &block); err == nil {
		return block, true
	}

	var loose interface{}
	if err := json5.Unmarshal(raw, &loose); err != nil {
		return ldDocument{}, false
	}
	canonical, err := json.Marshal(loose)
	if err != nil {
		return ldDocument{}, false
	}
	if err := json.Unmarshal(canonical, &block); err != nil {
		return ldDocument{}, false
	}
	return block, true
}

func toRawReview(entry ldReview) (domain.RawReview, bool) {
	if len(entry.Author) == 0 || entry.URL == nil || entry.Description == nil ||
		entry.ReviewRating == nil || len(entry.ReviewRating.RatingValue) == 0 {
		return domain.RawReview{}, false
	}

	return domain.RawReview{
		Author:      decodeAuthor(entry.Author),
		SourceURL:   strings.TrimSpace(*entry.URL),
		BodyText:    *entry.Description,
		RatingValue: decodeRating(entry.ReviewRating.RatingValue),
	}, true
}

func decodeAuthor(raw json.RawMessage) string {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return strings.TrimSpace(name)
	}

	var person struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &person); err == nil {
		return strings.TrimSpace(person.Name)
	}
	return ""
}

func decodeRating(raw json.RawMessage) float64 {
	var value float64
	if err := json.Unmarshal(raw, &value); err == nil {
		return value
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return parsed
		}
	}
	return 0
}
