// Package archiver drives an archive run.
//
// A run walks the observation listing page by page and, for each
// attachment, fetches the bytes, reads the EXIF title of images, picks a
// destination name and writes the file unless it is already there:
//
//	start -> authenticating -> listing -> resolving -> fetching -> ... -> done
//	                                                                  \-> aborted
//
// Only an authentication failure, a listing failure or cancellation
// aborts a run. Everything else is counted in the Summary.
package archiver
