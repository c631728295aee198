package tapestry

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the public journal site
	DefaultBaseURL = "https://tapestryjournal.com"

	// ObservationsEndpoint lists a school's observations, one page at a time
	ObservationsEndpoint = "/s/%s/observations"

	// ObservationEndpoint is the human-facing page of a single observation
	ObservationEndpoint = "/s/%s/observation/%s"

	// LoginPath is where the site sends signed-out visitors
	LoginPath = "/login"
)

// ListingURL builds the URL of listing page n (1-based)
func ListingURL(baseURL, school string, page int) string {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"),
		fmt.Sprintf(ObservationsEndpoint, url.PathEscape(school)), params.Encode())
}

// ObservationURL builds the link to an observation's page on the site
func ObservationURL(baseURL, school, id string) string {
	return strings.TrimRight(baseURL, "/") +
		fmt.Sprintf(ObservationEndpoint, url.PathEscape(school), url.PathEscape(id))
}

// IsLoginURL reports whether u points at the sign-in page
func IsLoginURL(u *url.URL) bool {
	if u == nil {
		return false
	}
	p := strings.TrimRight(u.Path, "/")
	return p == LoginPath || strings.HasSuffix(p, LoginPath) || strings.Contains(p, "/login/")
}

// resolveReference turns a possibly relative media URL into an absolute one
func resolveReference(baseURL, ref string) (*url.URL, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid media URL %q: %w", ref, err)
	}
	return base.ResolveReference(u), nil
}
