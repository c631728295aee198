// Package downloader moves a single attachment from the journal site to
// disk: fetch, EXIF lookup, naming and the no-overwrite write.
package downloader
