package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a per-URL failure for retry decisions and failure records.
type Kind string

const (
	// KindMalformedURL marks syntactically invalid input. Never retried.
	KindMalformedURL Kind = "malformed_url"
	// KindTransient marks timeouts, connection resets and other network
	// failures that may succeed on retry.
	KindTransient Kind = "transient_network"
	// KindRateLimited marks an explicit throttling response (HTTP 429).
	// Retryable, with a longer backoff than other transient failures.
	KindRateLimited Kind = "rate_limited"
	// KindServer marks 5xx responses. Retryable.
	KindServer Kind = "server_error"
	// KindNotFound marks 404/410 responses. Terminal.
	KindNotFound Kind = "not_found"
	// KindClient marks other 4xx responses. Terminal.
	KindClient Kind = "client_error"
	// KindParse marks content that did not match the expected structure.
	// Terminal: a transient partial response is indistinguishable from a
	// genuinely unparseable page.
	KindParse Kind = "parse_error"
)

// Retryable reports whether a failure of this kind may succeed on retry.
func (k Kind) Retryable() bool {
	switch k {
	case KindTransient, KindRateLimited, KindServer:
		return true
	}
	return false
}

// Error is a classified per-URL failure. Errors of this type are contained
// to their URL and never abort the enclosing crawl.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.URL)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err. Unclassified errors are
// treated as transient so the retry policy gets a chance to recover them.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransient
}

// classifyStatus maps a non-2xx HTTP status to a failure kind.
// Returns "" for statuses that are not failures.
func classifyStatus(code int) Kind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusNotFound || code == http.StatusGone:
		return KindNotFound
	case code >= 500:
		return KindServer
	case code >= 400:
		return KindClient
	}
	return ""
}
