package tapestry

import (
	"fmt"
	"net/http"
	"strings"
)

// CookieName is the session cookie the journal site issues on login
const CookieName = "tapestry_session"

// AuthContext carries the credentials every request needs. It is built
// once from configuration and passed by value; its fields cannot be
// changed after construction.
type AuthContext struct {
	cookieValue string
	schoolSlug  string
}

// NewAuthContext validates and captures the session cookie and school slug
func NewAuthContext(cookieValue, schoolSlug string) (AuthContext, error) {
	cookieValue = strings.TrimSpace(cookieValue)
	schoolSlug = strings.Trim(strings.TrimSpace(schoolSlug), "/")

	if cookieValue == "" {
		return AuthContext{}, fmt.Errorf("session cookie value is required")
	}
	if schoolSlug == "" {
		return AuthContext{}, fmt.Errorf("school slug is required")
	}
	if strings.ContainsAny(schoolSlug, "/?#") {
		return AuthContext{}, fmt.Errorf("invalid school slug %q", schoolSlug)
	}

	return AuthContext{cookieValue: cookieValue, schoolSlug: schoolSlug}, nil
}

func (a AuthContext) CookieValue() string { return a.cookieValue }
func (a AuthContext) SchoolSlug() string  { return a.schoolSlug }

// Valid reports whether a was built by NewAuthContext
func (a AuthContext) Valid() bool {
	return a.cookieValue != "" && a.schoolSlug != ""
}

// Cookie returns the session cookie to attach to requests
func (a AuthContext) Cookie() *http.Cookie {
	return &http.Cookie{Name: CookieName, Value: a.cookieValue}
}

// String never prints the cookie itself
func (a AuthContext) String() string {
	return fmt.Sprintf("school=%s cookie=%s", a.schoolSlug, maskSecret(a.cookieValue))
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", 6) + s[len(s)-2:]
}
