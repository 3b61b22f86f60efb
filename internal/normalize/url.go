package normalize

import (
	"net/url"
	"strings"
)

// Tracking parameters carry no identity, two links differing only in them
// point at the same posting.
var trackingParams = map[string]bool{
	"gclid":  true,
	"fbclid": true,
	"mc_cid": true,
	"mc_eid": true,
	"igshid": true,
}

// CanonicalURL reduces an absolute http(s) URL to a stable form: lowercase
// scheme and host, no fragment, tracking parameters removed, remaining query
// sorted by key. Returns false for anything that is not an absolute URL.
func CanonicalURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") || trackingParams[lower] {
			q.Del(key)
		}
	}
	// Encode sorts by key, so parameter order in the feed does not matter.
	u.RawQuery = q.Encode()

	return u.String(), true
}
