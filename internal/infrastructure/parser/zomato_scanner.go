package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
	"ReviewPipeline/internal/reldate"
	"ReviewPipeline/internal/scanner"
)

const (
	defaultPageSize     = 5
	defaultFetchTimeout = 5 * time.Second
)

// ZomatoOptions tunes pagination; zero values take defaults.
type ZomatoOptions struct {
	PageSize          int
	FetchTimeout      time.Duration
	RequestsPerMinute int
	Now               func() time.Time
}

// ZomatoScanner walks /reviews?page=N one page at a time until a stop condition fires.
type ZomatoScanner struct {
	fetcher   ports.PageFetcher
	extractor *ReviewExtractor
	pageSize  int
	timeout   time.Duration
	rpm       int
	now       func() time.Time
	logger    *slog.Logger
}

var _ scanner.Scanner = (*ZomatoScanner)(nil)

// NewZomatoScanner wires a fetcher and extractor.
func NewZomatoScanner(fetcher ports.PageFetcher, extractor *ReviewExtractor, opts ZomatoOptions, log *slog.Logger) *ZomatoScanner {
	if extractor == nil {
		extractor = NewReviewExtractor("")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ZomatoScanner{
		fetcher:   fetcher,
		extractor: extractor,
		pageSize:  opts.PageSize,
		timeout:   opts.FetchTimeout,
		rpm:       opts.RequestsPerMinute,
		now:       opts.Now,
		logger:    log,
	}
}

// Name identifies the strategy inside the registry.
func (z *ZomatoScanner) Name() string {
	return "zomato"
}

// Collect paginates req.BaseURL. Pages are requested strictly in order: a timeout
// skips the page, an empty page or a page repeating the previous one ends the
// run, and any other transport failure discards everything collected.
// Cancelling ctx stops between pages and keeps what was collected.
func (z *ZomatoScanner) Collect(ctx context.Context, req scanner.Request) domain.Collection {
	result := domain.Collection{SourceURL: req.BaseURL, Status: domain.StatusCompleted}

	maxPages := pageBudget(req.MaxReviews, z.pageSize)
	now := z.now()

	var limiter *rate.Limiter
	if z.rpm > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(z.rpm)/60.0), 1)
	}

	var previous []domain.RawReview
	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			return z.cancelled(result, page)
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return z.cancelled(result, page)
			}
		}

		pageURL, err := buildPageURL(req.BaseURL, page, req.Sort)
		if err != nil {
			return z.aborted(result, err)
		}

		outcome := z.fetcher.Fetch(ctx, pageURL, z.timeout)
		switch outcome.Kind {
		case domain.FetchTimeout:
			if ctx.Err() != nil {
				return z.cancelled(result, page)
			}
			result.PagesSkipped++
			z.warn("page timed out, skipping", "url", pageURL, "page", page)
			continue

		case domain.FetchTransportError:
			if ctx.Err() != nil {
				return z.cancelled(result, page)
			}
			return z.aborted(result, fmt.Errorf("page %d: %s", page, outcome.Detail))

		case domain.FetchEmptyOrMalformed:
			result.Status = domain.StatusStoppedEmpty
			z.info("empty page, stopping", "url", pageURL, "page", page)
			return result
		}

		result.PagesFetched++
		raw := z.extractor.Extract(outcome.HTML)
		if len(raw) == 0 {
			result.Status = domain.StatusStoppedEmpty
			z.info("no reviews on page, stopping", "url", pageURL, "page", page)
			return result
		}

		if sameReviewSet(raw, previous) {
			result.Status = domain.StatusStoppedDuplicate
			z.info("page repeats previous page, stopping", "url", pageURL, "page", page)
			return result
		}

		for _, review := range raw {
			result.Reviews = append(result.Reviews, domain.NormalizedReview{
				RawReview:    review,
				AbsoluteDate: reldate.Normalize(review.RelativeTimestamp, now),
			})
		}
		previous = raw
		z.debug("page collected", "page", page, "reviews", len(raw), "total", len(result.Reviews))
	}

	return result
}

func (z *ZomatoScanner) cancelled(result domain.Collection, page int) domain.Collection {
	result.Status = domain.StatusCancelled
	z.info("collection cancelled", "url", result.SourceURL, "next_page", page, "reviews", len(result.Reviews))
	return result
}

func (z *ZomatoScanner) aborted(result domain.Collection, err error) domain.Collection {
	if z.logger != nil {
		z.logger.Error("collection aborted, discarding reviews", "url", result.SourceURL, "discarded", len(result.Reviews), "error", err)
	}
	result.Status = domain.StatusAborted
	result.Reviews = nil
	result.Err = err
	return result
}

// pageBudget is ceil(maxReviews/pageSize).
func pageBudget(maxReviews, pageSize int) int {
	if maxReviews <= 0 || pageSize <= 0 {
		return 0
	}
	return (maxReviews + pageSize - 1) / pageSize
}

func sameReviewSet(current, previous []domain.RawReview) bool {
	if previous == nil {
		return false
	}
	a := toSet(current)
	b := toSet(previous)
	if len(a) != len(b) {
		return false
	}
	for review := range a {
		if _, ok := b[review]; !ok {
			return false
		}
	}
	return true
}

func toSet(reviews []domain.RawReview) map[domain.RawReview]struct{} {
	set := make(map[domain.RawReview]struct{}, len(reviews))
	for _, review := range reviews {
		set[review] = struct{}{}
	}
	return set
}

func buildPageURL(base string, page int, sort domain.SortMode) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("invalid source url %s: %w", base, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid source url %s: missing scheme or host", base)
	}

	trimmed := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(trimmed, "/reviews") {
		trimmed += "/reviews"
	}
	parsed.Path = trimmed

	query := parsed.Query()
	query.Set("page", strconv.Itoa(page))
	query.Set("sort", sort.QueryValue())
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (z *ZomatoScanner) debug(msg string, args ...interface{}) {
	if z.logger != nil {
		z.logger.Debug(msg, args...)
	}
}

func (z *ZomatoScanner) info(msg string, args ...interface{}) {
	if z.logger != nil {
		z.logger.Info(msg, args...)
	}
}

func (z *ZomatoScanner) warn(msg string, args ...interface{}) {
	if z.logger != nil {
		z.logger.Warn(msg, args...)
	}
}
