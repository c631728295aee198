package storage

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	errs "tapestry-archive/pkg/errors"
)

// WriteOutcome says what WriteIfAbsent did
type WriteOutcome int

const (
	Written WriteOutcome = iota + 1
	Skipped
)

func (o WriteOutcome) String() string {
	switch o {
	case Written:
		return "written"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Writer persists attachment bytes. A file already present at the
// destination is never touched.
type Writer struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// NewWriter creates a writer using 0755 directories and 0644 files
func NewWriter() *Writer {
	return &Writer{dirPerm: 0755, filePerm: 0644}
}

// Exists reports whether something is already stored at path
func (w *Writer) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, errs.Filesystem("cannot inspect "+path, err)
	}
}

// Matches reports whether the file at path holds exactly data. A missing
// file does not match.
func (w *Writer) Matches(path string, data []byte) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errs.Filesystem("cannot open "+path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, errs.Filesystem("cannot inspect "+path, err)
	}
	if !info.Mode().IsRegular() || info.Size() != int64(len(data)) {
		return false, nil
	}

	buf := make([]byte, 64<<10)
	for off := 0; off < len(data); {
		n, err := io.ReadFull(f, buf[:min(len(buf), len(data)-off)])
		if err != nil {
			return false, errs.Filesystem("cannot read "+path, err)
		}
		if !bytes.Equal(buf[:n], data[off:off+n]) {
			return false, nil
		}
		off += n
	}
	return true, nil
}

// WriteIfAbsent stores data at path unless a file is already there.
// Parent directories are created as needed and the bytes land in place
// through a synced temp file and a rename, so a crash never leaves a
// partial file under the final name.
func (w *Writer) WriteIfAbsent(path string, data []byte) (WriteOutcome, error) {
	exists, err := w.Exists(path)
	if err != nil {
		return 0, err
	}
	if exists {
		return Skipped, nil
	}

	if err := w.writeAtomic(path, data); err != nil {
		return 0, err
	}
	return Written, nil
}

// Replace atomically writes data to path, overwriting any previous file
func (w *Writer) Replace(path string, data []byte) error {
	return w.writeAtomic(path, data)
}

func (w *Writer) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, w.dirPerm); err != nil {
		return errs.Filesystem("failed to create directory "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tapestry-*.part")
	if err != nil {
		return errs.Filesystem("failed to create temporary file", err)
	}
	tmpName := tmp.Name()

	fail := func(msg string, cause error) error {
		tmp.Close()
		os.Remove(tmpName)
		return errs.Filesystem(msg, cause)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("failed to write "+path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("failed to sync "+path, err)
	}
	if err := tmp.Chmod(w.filePerm); err != nil {
		return fail("failed to set permissions on "+path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errs.Filesystem("failed to close "+path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errs.Filesystem("failed to move "+path+" into place", err)
	}
	return nil
}
