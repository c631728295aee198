package media

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Sniff detects the content type of data from its leading bytes
func Sniff(data []byte) string {
	return mimetype.Detect(data).String()
}

// ExtensionFor returns the usual file extension, dot included, for a
// content type such as "image/png". Parameters like "; charset" are
// ignored. Unknown types yield "".
func ExtensionFor(contentType string) string {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if base == "" {
		return ""
	}
	m := mimetype.Lookup(base)
	if m == nil {
		return ""
	}
	return m.Extension()
}

var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".3gp":  "video/3gpp",
}

// TypeForExtension returns the content type usually served for a file
// extension such as ".mov", or "" when it is not a known media type
func TypeForExtension(ext string) string {
	return extensionTypes[strings.ToLower(ext)]
}

// IsImage reports whether contentType names an image
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// IsVideo reports whether contentType names a video
func IsVideo(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/")
}
