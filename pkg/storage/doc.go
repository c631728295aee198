// Package storage decides where attachments go and writes them there.
//
// Files are named "{YYYY-MM-DD} {title}[ - {exif title}]{ext}". When two
// different attachments of one run map to the same name the later one
// gets " (2)", " (3)" and so on. A file already on disk under the chosen
// name is treated as downloaded by an earlier run and left alone, which
// makes repeated runs over the same directory idempotent without any
// index file.
package storage
