package tapestry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "tapestry-archive/pkg/errors"
	"tapestry-archive/pkg/logger"
)

func testAuth(t *testing.T) AuthContext {
	t.Helper()
	auth, err := NewAuthContext("good-cookie", "oak")
	require.NoError(t, err)
	return auth
}

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, nil, logger.NewNopLogger())
}

// pagedServer serves the given pages as listing JSON and counts requests
func pagedServer(t *testing.T, pages []string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/s/oak/observations", r.URL.Path)

		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value != "good-cookie" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		if page < 1 || page > len(pages) {
			fmt.Fprint(w, `{"observations":[]}`)
			return
		}
		fmt.Fprint(w, pages[page-1])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func collect(t *testing.T, c *Client, auth AuthContext) ([]Observation, error) {
	t.Helper()
	var out []Observation
	for obs, err := range c.Observations(context.Background(), auth) {
		if err != nil {
			return out, err
		}
		out = append(out, obs)
	}
	return out, nil
}

func TestObservationsPaginatesUntilHasMoreFalse(t *testing.T) {
	srv, calls := pagedServer(t, []string{
		`{"observations":[{"id":"1","title":"Nap Time","date":"2023-05-01","media":[{"url":"/m/1.jpg","type":"image"}]}],"has_more":true}`,
		`{"observations":[{"id":2,"title":"Painting","date":"2023-05-02T09:00:00Z","author":"Ms Smith","notes":"Blue!","media":[]}],"has_more":false}`,
		`{"observations":[{"id":"3","title":"never","date":"2023-05-03"}]}`,
	})

	obs, err := collect(t, newTestClient(srv.URL), testAuth(t))
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))

	assert.Equal(t, "1", obs[0].ID)
	assert.Equal(t, "Nap Time", obs[0].Title)
	require.Len(t, obs[0].Attachments, 1)
	assert.Equal(t, Image, obs[0].Attachments[0].Kind)

	assert.Equal(t, "2", obs[1].ID)
	assert.Equal(t, "Ms Smith", obs[1].Author)
	assert.Equal(t, "Blue!", obs[1].Notes)
	assert.Empty(t, obs[1].Attachments)
}

func TestObservationsStopsOnEmptyPage(t *testing.T) {
	srv, calls := pagedServer(t, []string{
		`{"observations":[{"id":"1","title":"a","date":"2023-05-01"}]}`,
		`{"observations":[{"id":"2","title":"b","date":"2023-05-02"}]}`,
	})

	obs, err := collect(t, newTestClient(srv.URL), testAuth(t))
	require.NoError(t, err)
	assert.Len(t, obs, 2)
	// two pages with data plus the empty third
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestObservationsIsLazy(t *testing.T) {
	srv, calls := pagedServer(t, []string{
		`{"observations":[{"id":"1","title":"a","date":"2023-05-01"},{"id":"2","title":"b","date":"2023-05-01"}],"has_more":true}`,
		`{"observations":[{"id":"3","title":"c","date":"2023-05-01"}],"has_more":false}`,
	})
	c := newTestClient(srv.URL)

	seq := c.Observations(context.Background(), testAuth(t))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls), "no request before iteration")

	for obs, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, "1", obs.ID)
		break
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "stopping early does not fetch page 2")

	// a fresh range starts from page 1 again
	obs, err := collect(t, c, testAuth(t))
	require.NoError(t, err)
	assert.Len(t, obs, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestObservationsErrors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantType errs.ErrorType
	}{
		{
			name:     "unauthorized",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			wantType: errs.ErrorTypeAuth,
		},
		{
			name:     "forbidden",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
			wantType: errs.ErrorTypeAuth,
		},
		{
			name:     "not found is a remote failure for the listing",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			wantType: errs.ErrorTypeRemote,
		},
		{
			name:     "server error",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			wantType: errs.ErrorTypeRemote,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"observations": [`)
			},
			wantType: errs.ErrorTypeRemote,
		},
		{
			name: "bad date",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"observations":[{"id":"1","title":"x","date":"soon"}]}`)
			},
			wantType: errs.ErrorTypeRemote,
		},
		{
			name: "logged out page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, `<html><div class="alert">You have been logged out</div></html>`)
			},
			wantType: errs.ErrorTypeAuth,
		},
		{
			name: "other html page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, `<html><h1>Maintenance</h1></html>`)
			},
			wantType: errs.ErrorTypeRemote,
		},
		{
			name: "redirect to login",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/login" {
					fmt.Fprint(w, "<html>sign in</html>")
					return
				}
				http.Redirect(w, r, "/login", http.StatusFound)
			},
			wantType: errs.ErrorTypeAuth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			var yielded int
			var lastErr error
			for _, err := range newTestClient(srv.URL).Observations(context.Background(), testAuth(t)) {
				yielded++
				lastErr = err
			}

			assert.Equal(t, 1, yielded, "the error is the only and last element")
			require.Error(t, lastErr)
			assert.Equal(t, tt.wantType, errs.TypeOf(lastErr), lastErr.Error())
		})
	}
}

func TestObservationsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := collect(t, newTestClient(url), testAuth(t))
	require.Error(t, err)
	assert.True(t, errs.IsRemote(err))
}

func TestObservationsCancelledContext(t *testing.T) {
	srv, calls := pagedServer(t, []string{`{"observations":[]}`})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, err := range newTestClient(srv.URL).Observations(ctx, testAuth(t)) {
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestObservationsRejectsZeroAuth(t *testing.T) {
	srv, calls := pagedServer(t, nil)

	_, err := collect(t, newTestClient(srv.URL), AuthContext{})
	assert.True(t, errs.IsAuthentication(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestFetch(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/media/photo":
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value != "good-cookie" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(jpeg)
		case "/media/gone":
			w.WriteHeader(http.StatusGone)
		case "/media/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/media/denied":
			w.WriteHeader(http.StatusUnauthorized)
		case "/media/broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "/media/expired":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<div class="alert">You are logged out</div>`)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	auth := testAuth(t)
	ctx := context.Background()

	t.Run("success with relative url", func(t *testing.T) {
		payload, err := c.Fetch(ctx, auth, Attachment{URL: "/media/photo", Kind: Image})
		require.NoError(t, err)
		assert.Equal(t, jpeg, payload.Data)
		assert.Equal(t, "image/jpeg", payload.ContentType)
	})

	errCases := map[string]errs.ErrorType{
		"/media/gone":    errs.ErrorTypeNotFound,
		"/media/missing": errs.ErrorTypeNotFound,
		"/media/denied":  errs.ErrorTypeAuth,
		"/media/broken":  errs.ErrorTypeRemote,
		"/media/expired": errs.ErrorTypeAuth,
		"/media/teapot":  errs.ErrorTypeRemote,
	}
	for path, want := range errCases {
		t.Run(path, func(t *testing.T) {
			_, err := c.Fetch(ctx, auth, Attachment{URL: srv.URL + path})
			require.Error(t, err)
			assert.Equal(t, want, errs.TypeOf(err))
		})
	}
}

func TestFetchDoesNotLeakCookieToOtherHosts(t *testing.T) {
	var sawCookie atomic.Bool
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(CookieName); err == nil {
			sawCookie.Store(true)
		}
		w.Write([]byte("data"))
	}))
	defer cdn.Close()

	site := httptest.NewServer(http.NotFoundHandler())
	defer site.Close()

	_, err := newTestClient(site.URL).Fetch(context.Background(), testAuth(t), Attachment{URL: cdn.URL + "/a.jpg"})
	require.NoError(t, err)
	assert.False(t, sawCookie.Load())
}

func TestFetchMakesASingleAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), testAuth(t), Attachment{URL: srv.URL + "/x"})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClientLogsRequests(t *testing.T) {
	srv, _ := pagedServer(t, nil)
	tl := logger.NewTestLogger()

	c := NewClient(srv.URL, time.Second, nil, tl)
	_, err := collect(t, c, testAuth(t))
	require.NoError(t, err)

	assert.True(t, tl.HasMessage("HTTP request completed"))
	assert.True(t, tl.HasMessage("listing page fetched"))
}
