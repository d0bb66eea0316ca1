package domain

// FetchKind discriminates PageFetchOutcome variants.
type FetchKind int

const (
	FetchSuccess FetchKind = iota
	FetchTimeout
	FetchTransportError
	FetchEmptyOrMalformed
)

func (k FetchKind) String() string {
	switch k {
	case FetchSuccess:
		return "success"
	case FetchTimeout:
		return "timeout"
	case FetchTransportError:
		return "transport_error"
	case FetchEmptyOrMalformed:
		return "empty_or_malformed"
	default:
		return "unknown"
	}
}

// PageFetchOutcome is the result of one page request. HTML is set only on success,
// Detail only on transport errors.
type PageFetchOutcome struct {
	Kind   FetchKind
	HTML   []byte
	Detail string
}

func FetchedPage(html []byte) PageFetchOutcome {
	return PageFetchOutcome{Kind: FetchSuccess, HTML: html}
}

func FetchTimedOut() PageFetchOutcome {
	return PageFetchOutcome{Kind: FetchTimeout}
}

func FetchFailed(detail string) PageFetchOutcome {
	return PageFetchOutcome{Kind: FetchTransportError, Detail: detail}
}

func FetchEmpty() PageFetchOutcome {
	return PageFetchOutcome{Kind: FetchEmptyOrMalformed}
}
