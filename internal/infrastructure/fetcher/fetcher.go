package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
)

// DefaultUserAgent mimics a desktop browser; review pages reject bare clients.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_4) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/83.0.4103.97 Safari/537.36"

// HTTPFetcher issues one GET per call and never retries.
type HTTPFetcher struct {
	client *resty.Client
	logger *slog.Logger
}

var _ ports.PageFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher wraps a resty client; a nil client gets a default one.
func NewHTTPFetcher(client *resty.Client, userAgent string, log *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = resty.New()
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("User-Agent", userAgent).SetRetryCount(0)
	return &HTTPFetcher{client: client, logger: log}
}

// Fetch requests pageURL bounded by timeout. Non-2xx statuses are reported as transport errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string, timeout time.Duration) domain.PageFetchOutcome {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := f.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		if isTimeout(ctx, err) {
			f.debug("page fetch timed out", "url", pageURL, "timeout", timeout)
			return domain.FetchTimedOut()
		}
		return domain.FetchFailed(fmt.Sprintf("request %s: %v", pageURL, err))
	}

	if !resp.IsSuccess() {
		return domain.FetchFailed(fmt.Sprintf("%s returned %s", pageURL, resp.Status()))
	}

	body := resp.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return domain.FetchEmpty()
	}

	f.debug("page fetched", "url", pageURL, "bytes", len(body))
	return domain.FetchedPage(body)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (f *HTTPFetcher) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
