package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
	"ReviewPipeline/internal/scanner"
)

// DefaultScanner is used for sources that do not name a strategy.
const DefaultScanner = "zomato"

// StrategySource implements ReviewSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	logger   *slog.Logger
}

var _ ports.ReviewSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry.
func NewStrategySource(reg *scanner.Registry, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		logger:   log,
	}
}

// Collect resolves the source's scanner and runs it. Resolution failures are
// reported as an aborted collection.
func (s *StrategySource) Collect(ctx context.Context, source domain.Source) domain.Collection {
	if s.registry == nil {
		return abortedCollection(source, fmt.Errorf("scanner registry is not configured"))
	}

	name := strings.TrimSpace(source.Scanner)
	if name == "" {
		name = DefaultScanner
	}

	strategy, err := s.registry.Resolve(name)
	if err != nil {
		return abortedCollection(source, fmt.Errorf("source %s: %w", source.Name, err))
	}

	s.debug("collect source", "source", source.Name, "scanner", name, "max_reviews", source.MaxReviews, "sort", source.Sort)
	collection := strategy.Collect(ctx, scanner.Request{
		SourceName: source.Name,
		BaseURL:    source.URL,
		MaxReviews: source.MaxReviews,
		Sort:       source.Sort,
	})
	s.debug("source collected", "source", source.Name, "status", collection.Status, "reviews", len(collection.Reviews))
	return collection
}

func abortedCollection(source domain.Source, err error) domain.Collection {
	return domain.Collection{
		SourceURL: source.URL,
		Status:    domain.StatusAborted,
		Err:       err,
	}
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
