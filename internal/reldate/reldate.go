// Package reldate resolves human relative timestamps ("3 days ago", "yesterday")
// into calendar dates.
//
// Months are treated as 30 days and years as 365 days. Review dates are only
// approximations of when a label was rendered, and reports built on these
// values depend on the fixed lengths.
package reldate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ReviewPipeline/internal/domain"
)

const dateLayout = "2006-01-02"

var agoExpr = regexp.MustCompile(`(?i)\b(\d+|one)\s+(second|minute|hour|day|week|month|year)s?\s+ago\b`)

var unitSeconds = map[string]int64{
	"second": 1,
	"minute": 60,
	"hour":   60 * 60,
	"day":    24 * 60 * 60,
	"week":   7 * 24 * 60 * 60,
	"month":  30 * 24 * 60 * 60,
	"year":   365 * 24 * 60 * 60,
}

// Normalize returns the date the label refers to, relative to now, formatted as
// YYYY-MM-DD in now's location, or domain.DateUnavailable when it cannot be read.
func Normalize(label string, now time.Time) string {
	text := strings.ToLower(strings.TrimSpace(label))
	if text == "" {
		return domain.DateUnavailable
	}

	if text == "yesterday" {
		return now.AddDate(0, 0, -1).Format(dateLayout)
	}

	match := agoExpr.FindStringSubmatch(text)
	if match == nil {
		return domain.DateUnavailable
	}

	n, ok := parseCount(match[1])
	if !ok {
		return domain.DateUnavailable
	}

	perUnit := unitSeconds[match[2]]
	if n > math.MaxInt64/int64(time.Second)/perUnit {
		return domain.DateUnavailable
	}

	offset := time.Duration(n*perUnit) * time.Second
	return now.Add(-offset).Format(dateLayout)
}

func parseCount(value string) (int64, bool) {
	if value == "one" {
		return 1, true
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
