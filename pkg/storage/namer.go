package storage

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"tapestry-archive/pkg/media"
	"tapestry-archive/pkg/tapestry"
)

const untitled = "Untitled"

// Namer derives destination paths for attachments. It remembers which
// attachment URL claimed each name during the current run so that two
// different attachments never share a path, while the same inputs in the
// same order always produce the same names. Files left by earlier runs
// are taken into account through Place.
type Namer struct {
	outputDir string

	mu     sync.Mutex
	claims map[string]string // file name -> attachment URL
}

// NewNamer creates a namer placing files in outputDir
func NewNamer(outputDir string) *Namer {
	return &Namer{
		outputDir: outputDir,
		claims:    make(map[string]string),
	}
}

// OutputDir returns the directory destinations are placed in
func (n *Namer) OutputDir() string {
	return n.outputDir
}

// Destination computes and claims the path for task using the content
// type declared by the listing
func (n *Namer) Destination(task tapestry.DownloadTask, exifTitle string) string {
	return n.DestinationWithType(task, exifTitle, "")
}

// DestinationWithType computes and claims the path for task. sniffedType
// is the content type detected from the downloaded bytes, if known.
func (n *Namer) DestinationWithType(task tapestry.DownloadTask, exifTitle, sniffedType string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	name := n.resolve(task, exifTitle, sniffedType)
	n.claims[name] = task.Attachment.URL
	return filepath.Join(n.outputDir, name)
}

// Peek returns the path DestinationWithType would return, without
// claiming it
func (n *Namer) Peek(task tapestry.DownloadTask, exifTitle, sniffedType string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return filepath.Join(n.outputDir, n.resolve(task, exifTitle, sniffedType))
}

func (n *Namer) resolve(task tapestry.DownloadTask, exifTitle, sniffedType string) string {
	name, _ := n.place(task, exifTitle, sniffedType, nil)
	return name
}

// Place computes and claims the path for task like DestinationWithType,
// but also asks fits about every candidate no other attachment of this
// run has claimed. A candidate that does not fit is held by something
// else on disk, and the next " (N)" name is tried instead.
func (n *Namer) Place(task tapestry.DownloadTask, exifTitle, sniffedType string, fits func(path string) (bool, error)) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	name, err := n.place(task, exifTitle, sniffedType, fits)
	if err != nil {
		return "", err
	}
	n.claims[name] = task.Attachment.URL
	return filepath.Join(n.outputDir, name), nil
}

func (n *Namer) place(task tapestry.DownloadTask, exifTitle, sniffedType string, fits func(string) (bool, error)) (string, error) {
	stem := BaseName(task, exifTitle)
	ext := Extension(task.Attachment, sniffedType)

	for i := 1; ; i++ {
		name := stem + ext
		if i > 1 {
			name = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		owner, taken := n.claims[name]
		if taken && owner != task.Attachment.URL {
			continue
		}
		if taken || fits == nil {
			return name, nil
		}
		ok, err := fits(filepath.Join(n.outputDir, name))
		if err != nil {
			return "", err
		}
		if ok {
			return name, nil
		}
	}
}

// BaseName returns "{YYYY-MM-DD} {title}[ - {exifTitle}]" without an
// extension. The EXIF title is only used for images.
func BaseName(task tapestry.DownloadTask, exifTitle string) string {
	title := SanitizeTitle(task.ObservationTitle)
	if title == "" {
		title = untitled
	}

	name := task.ObservationDate.Format("2006-01-02") + " " + title
	if task.Attachment.Kind == tapestry.Image {
		if exif := SanitizeTitle(exifTitle); exif != "" {
			name += " - " + exif
		}
	}
	return name
}

// Extension picks the file extension for an attachment: the sniffed type
// when it agrees with the attachment kind, then the declared type, then
// the URL's extension, then ".jpg" for images and ".mp4" for videos
func Extension(a tapestry.Attachment, sniffedType string) string {
	for _, ct := range []string{sniffedType, a.ContentType, media.TypeForExtension(urlExt(a.URL))} {
		if !kindMatches(a.Kind, ct) {
			continue
		}
		if ext := media.ExtensionFor(ct); ext != "" {
			return strings.ToLower(ext)
		}
	}
	if a.Kind == tapestry.Video {
		return ".mp4"
	}
	return ".jpg"
}

func urlExt(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return path.Ext(p)
}

func kindMatches(kind tapestry.Kind, contentType string) bool {
	if kind == tapestry.Video {
		return media.IsVideo(contentType)
	}
	return media.IsImage(contentType)
}
