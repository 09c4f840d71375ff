package util

import (
	"net/url"
	"strings"
)

// ValidateURL reports whether raw is an absolute http or https URL with a host.
func ValidateURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// MergeQuery appends the request's raw query to the destination's own query.
// Destination parameters come first and repeated keys are kept as-is.
func MergeQuery(requestQuery, destination string) string {
	requestQuery = strings.Trim(requestQuery, "?&")
	if requestQuery == "" {
		return destination
	}
	u, err := url.Parse(destination)
	if err != nil {
		return destination
	}
	own := strings.Trim(u.RawQuery, "&")
	if own == "" {
		u.RawQuery = requestQuery
	} else {
		u.RawQuery = own + "&" + requestQuery
	}
	u.ForceQuery = false
	return u.String()
}

// SlugFromPath strips a single trailing slash (unless the path is "/") and the
// leading slash. "/" becomes "".
func SlugFromPath(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return strings.TrimPrefix(path, "/")
}
