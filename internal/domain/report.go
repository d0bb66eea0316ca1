package domain

// Source identifies one review page collection to run.
type Source struct {
	Name       string
	Scanner    string
	URL        string
	MaxReviews int
	Sort       SortMode
}

// Report is what the pipeline hands to persistence and reporting sinks.
type Report struct {
	SourceName string
	SourceURL  string
	Status     CollectStatus
	Reviews    []EnrichedReview
	Aggregate  AggregateRecord
	// Skipped counts reviews whose body could not be featurized.
	Skipped int
	Err     error
}
