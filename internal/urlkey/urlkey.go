// Package urlkey maps raw URLs to canonical identity keys.
// Every place in the pipeline where URL identity matters (dedup, visited
// checks, store lookups) goes through Canonicalize first.
package urlkey

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformed is returned for syntactically invalid input, e.g. a URL
// without a scheme or host. Well-formed but unusual URLs never fail.
var ErrMalformed = errors.New("malformed url")

// Session and click-tracking parameters that do not affect document
// identity. Everything else in the query string is preserved because the
// target site encodes document selection in query parameters.
var trackingParams = map[string]struct{}{
	"gclid":      {},
	"fbclid":     {},
	"msclkid":    {},
	"sessionid":  {},
	"jsessionid": {},
	"phpsessid":  {},
}

// Canonicalize normalizes rawURL into its canonical key. The function is
// total and deterministic, and idempotent: applying it to its own output
// returns the same key.
//
// Normalization steps: lowercase scheme and host, strip default ports, drop
// the fragment, remove tracking/session query parameters, sort the remaining
// query parameters, and trim trailing slashes from the path.
func Canonicalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: missing scheme or host in %q", ErrMalformed, rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	switch u.Scheme {
	case "http":
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case "https":
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for name := range q {
			if isTrackingParam(name) {
				q.Del(name)
			}
		}
		u.RawQuery = q.Encode() // Encode sorts keys
	}

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return u.String(), nil
}

func isTrackingParam(name string) bool {
	n := strings.ToLower(name)
	if strings.HasPrefix(n, "utm_") {
		return true
	}
	_, ok := trackingParams[n]
	return ok
}
