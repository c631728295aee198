// Package media inspects downloaded attachment bytes: it sniffs their
// content type and reads the EXIF title of images.
package media
