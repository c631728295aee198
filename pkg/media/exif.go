package media

import (
	"bytes"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// Descriptions some cameras write into every photo. They say nothing about
// the picture so they never make it into a filename.
var placeholderTitles = map[string]bool{
	"OLYMPUS DIGITAL CAMERA": true,
	"SONY DSC":               true,
	"DIGITAL CAMERA":         true,
	"DCIM":                   true,
}

// ExifTitle returns the ImageDescription stored in the image's EXIF block.
// Images without EXIF, with an unreadable block, or with a blank or
// placeholder description yield "".
func ExifTitle(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	tag, err := x.Get(exif.ImageDescription)
	if err != nil {
		return ""
	}

	title, err := tag.StringVal()
	if err != nil {
		return ""
	}

	title = strings.TrimSpace(strings.TrimRight(title, "\x00"))
	if placeholderTitles[strings.ToUpper(title)] {
		return ""
	}
	return title
}
