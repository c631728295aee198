package tapestry

import (
	"net/url"
	"path"
	"strings"

	"tapestry-archive/pkg/media"
)

// ResolveAttachments turns raw listing media into typed attachments,
// keeping their order. Entries without a URL are dropped.
func ResolveAttachments(raw []RawMedia) []Attachment {
	attachments := make([]Attachment, 0, len(raw))
	for _, m := range raw {
		u := strings.TrimSpace(m.URL)
		if u == "" {
			continue
		}
		attachments = append(attachments, Attachment{
			URL:         u,
			Kind:        classify(m.Type, m.ContentType, u),
			ContentType: strings.TrimSpace(m.ContentType),
		})
	}
	return attachments
}

// classify tries the declared type, then the content type, then the URL
// extension
func classify(declared, contentType, rawURL string) Kind {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "video", "movie":
		return Video
	case "image", "photo", "picture":
		return Image
	}

	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "video/"):
		return Video
	case strings.HasPrefix(ct, "image/"):
		return Image
	}

	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	if media.IsVideo(media.TypeForExtension(path.Ext(p))) {
		return Video
	}
	return Image
}
