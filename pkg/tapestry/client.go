package tapestry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "tapestry-archive/pkg/errors"
	"tapestry-archive/pkg/logger"
	"tapestry-archive/pkg/media"
	"tapestry-archive/pkg/ratelimit"
)

// maxListingBody caps how much of a listing response is read
const maxListingBody = 16 << 20

// Client talks to the journal site: it pages through the observation
// listing and downloads attachment bytes.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a client for the site at baseURL. A nil limiter means
// requests are not paced; a nil logger uses the global logger.
func NewClient(baseURL string, timeout time.Duration, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Accept-Language": "en-GB,en;q=0.9",
			"Cache-Control":   "no-cache",
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: limiter,
		logger:  log,
	}
}

// SetHeader sets a custom header for every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// BaseURL returns the site root requests are made against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Observations lazily pages through the listing, starting at page 1 on
// every call. Iteration ends after the last page, when the consumer stops,
// or after the first error is yielded.
func (c *Client) Observations(ctx context.Context, auth AuthContext) iter.Seq2[Observation, error] {
	return func(yield func(Observation, error) bool) {
		for page := 1; ; page++ {
			listing, err := c.fetchListingPage(ctx, auth, page)
			if err != nil {
				yield(Observation{}, err)
				return
			}

			c.logger.DebugWithFields("listing page fetched", map[string]interface{}{
				"page":         page,
				"observations": len(listing.Observations),
			})

			if len(listing.Observations) == 0 {
				return
			}

			for _, raw := range listing.Observations {
				obs, err := raw.toObservation()
				if err != nil {
					yield(Observation{}, errs.Remote("malformed observation in listing", http.StatusOK, err))
					return
				}
				if !yield(obs, nil) {
					return
				}
			}

			if listing.HasMore != nil && !*listing.HasMore {
				return
			}
		}
	}
}

func (c *Client) fetchListingPage(ctx context.Context, auth AuthContext, page int) (*listingPage, error) {
	if !auth.Valid() {
		return nil, errs.Authentication("no session credentials", 0)
	}

	pageURL := ListingURL(c.baseURL, auth.SchoolSlug(), page)
	resp, err := c.get(ctx, pageURL, auth, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		// A missing listing means the school slug is wrong, not that one
		// item vanished
		if errs.IsNotFound(err) {
			return nil, errs.Remote("listing endpoint not found, check the school slug", resp.StatusCode, err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBody))
	if err != nil {
		return nil, errs.Remote("failed to read listing body", resp.StatusCode, err)
	}

	if looksLikeHTML(resp.Header.Get("Content-Type"), body) {
		if isLoggedOutPage(body) {
			c.logger.WarnWithFields("listing returned the signed-out page", map[string]interface{}{"url": pageURL})
			return nil, errs.Authentication("you appear to be logged out, check the cookie value", resp.StatusCode)
		}
		return nil, errs.Remote("listing returned HTML instead of JSON", resp.StatusCode, nil)
	}

	var listing listingPage
	if err := json.Unmarshal(body, &listing); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse listing", map[string]interface{}{
			"url":          pageURL,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return nil, errs.Remote("malformed listing body", resp.StatusCode, err)
	}

	return &listing, nil
}

// Fetch downloads the bytes behind one attachment. It makes exactly one
// attempt.
func (c *Client) Fetch(ctx context.Context, auth AuthContext, a Attachment) (*Payload, error) {
	target, err := resolveReference(c.baseURL, a.URL)
	if err != nil {
		return nil, errs.Remote("bad attachment URL", 0, err)
	}

	resp, err := c.get(ctx, target.String(), c.credentialsFor(target, auth), "*/*")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Remote("failed to read attachment body", resp.StatusCode, err)
	}

	// Media URLs answer with the signed-out page once the session expires
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "html") && isLoggedOutPage(data) {
		return nil, errs.Authentication("you appear to be logged out, check the cookie value", resp.StatusCode)
	}

	payload := &Payload{Data: data, ContentType: media.Sniff(data)}
	c.logger.DebugWithFields("attachment fetched", map[string]interface{}{
		"url":          target.String(),
		"size":         len(data),
		"content_type": payload.ContentType,
	})
	return payload, nil
}

// credentialsFor only hands the session cookie to the site itself. Media
// served from another host gets no cookie.
func (c *Client) credentialsFor(target *url.URL, auth AuthContext) AuthContext {
	base, err := url.Parse(c.baseURL)
	if err != nil || !strings.EqualFold(base.Host, target.Host) {
		return AuthContext{}
	}
	return auth
}

func (c *Client) get(ctx context.Context, rawURL string, auth AuthContext, accept string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Remote("request cancelled", 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Remote("failed to create request", 0, err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Accept", accept)
	if auth.Valid() {
		req.AddCookie(auth.Cookie())
	}

	return c.doRequest(req)
}

// doRequest performs an HTTP request and logs the exchange
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Remote(fmt.Sprintf("network error fetching %s", req.URL.Redacted()), 0, err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// checkResponseStatus maps the final response to an error, treating a
// redirect that lands on the sign-in page as an expired session
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.Request != nil && IsLoginURL(resp.Request.URL) {
		c.logger.WarnWithFields("redirected to login page", map[string]interface{}{
			"url": resp.Request.URL.String(),
		})
		return errs.Authentication("redirected to the login page, check the cookie value", resp.StatusCode)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	u := ""
	if resp.Request != nil {
		u = resp.Request.URL.Redacted()
	}
	return errs.FromStatusCode(resp.StatusCode, u)
}
