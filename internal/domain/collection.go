package domain

import "strings"

// SortMode selects the review ordering requested from the source.
type SortMode string

const (
	SortPopular SortMode = "popular"
	SortNew     SortMode = "new"
)

// ParseSortMode maps free-form input to a SortMode; ok is false for unknown values.
func ParseSortMode(value string) (SortMode, bool) {
	switch SortMode(strings.ToLower(strings.TrimSpace(value))) {
	case SortPopular, "":
		return SortPopular, true
	case SortNew:
		return SortNew, true
	default:
		return SortPopular, false
	}
}

// QueryValue is the value sent in the sort query parameter.
func (s SortMode) QueryValue() string {
	if s == SortNew {
		return "dd"
	}
	return "rd"
}

// CollectStatus reports how a pagination run terminated.
type CollectStatus string

const (
	StatusCompleted        CollectStatus = "completed"
	StatusStoppedEmpty     CollectStatus = "stopped_empty"
	StatusStoppedDuplicate CollectStatus = "stopped_duplicate"
	StatusCancelled        CollectStatus = "cancelled"
	StatusAborted          CollectStatus = "aborted"
)

// Succeeded is false only for a fatal abort; every other status keeps its reviews.
func (s CollectStatus) Succeeded() bool {
	return s != StatusAborted
}

// Collection is the outcome of paginating one source.
type Collection struct {
	SourceURL    string
	Reviews      []NormalizedReview
	Status       CollectStatus
	PagesFetched int
	PagesSkipped int
	Err          error
}
