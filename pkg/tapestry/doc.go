// Package tapestry is a client for the Tapestry journal site.
//
// The site is reached with a session cookie captured from a logged-in
// browser. Observations are listed page by page from
//
//	GET {base}/s/{school}/observations?page=N
//
// which answers with
//
//	{"observations": [{"id": "123", "title": "Nap Time", "date": "2023-05-01T10:15:00Z",
//	  "author": "Ms Smith", "notes": "...",
//	  "media": [{"url": "https://...", "type": "image", "content_type": "image/jpeg"}]}],
//	 "has_more": true}
//
// Listing stops at the first empty page or when has_more is false.
// Expired sessions show up as 401/403, as a redirect to /login, or as an
// HTML page with a "logged out" alert; all three are reported as
// authentication errors.
package tapestry
