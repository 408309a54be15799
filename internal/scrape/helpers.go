package scrape

import (
	"net/url"
	"strings"
)

// normalizeSpace collapses runs of whitespace into single spaces and trims
// the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CanonicalizeCallURL strips query, fragment and trailing slash so that the
// same call page always yields the same URL string. The host is lowercased.
func CanonicalizeCallURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.TrimRight(rawURL, "/")
	}
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// pathSegments returns the non-empty path segments of a URL.
func pathSegments(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// lastPathSegment returns the final non-empty path segment of a URL, or "".
func lastPathSegment(rawURL string) string {
	segs := pathSegments(rawURL)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}
