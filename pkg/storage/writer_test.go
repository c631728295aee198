package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "tapestry-archive/pkg/errors"
)

func TestWriteIfAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "images", "2023-05-01 Nap Time.jpg")
	w := NewWriter()

	outcome, err := w.WriteIfAbsent(path, []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, Written, outcome)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	outcome, err = w.WriteIfAbsent(path, []byte("second"))
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data), "existing file is untouched")
}

func TestMatches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mov")
	w := NewWriter()

	same, err := w.Matches(path, []byte("bytes"))
	require.NoError(t, err)
	assert.False(t, same, "missing file")

	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0644))

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"identical", []byte("bytes"), true},
		{"same size different content", []byte("BYTES"), false},
		{"different size", []byte("bytes and more"), false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			same, err := w.Matches(path, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, same)
		})
	}

	same, err = w.Matches(dir, nil)
	require.NoError(t, err)
	assert.False(t, same, "directories never match")
}

func TestMatchesLargeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big")
	data := make([]byte, 200<<10)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, data, 0644))

	w := NewWriter()
	same, err := w.Matches(path, data)
	require.NoError(t, err)
	assert.True(t, same)

	changed := append([]byte(nil), data...)
	changed[len(changed)-1]++
	same, err = w.Matches(path, changed)
	require.NoError(t, err)
	assert.False(t, same)
}

func TestWriteIfAbsentLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()

	for _, name := range []string{"a.jpg", "b.jpg", "a.jpg"} {
		_, err := w.WriteIfAbsent(filepath.Join(dir, name), []byte(name))
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"a.jpg", "b.jpg"}, names)
}

func TestWriteIfAbsentFilesystemError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewWriter().WriteIfAbsent(filepath.Join(blocker, "child.jpg"), []byte("x"))
	require.Error(t, err)
	assert.True(t, errs.IsFilesystem(err))
}

func TestWriteIfAbsentReadOnlyDir(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	_, err := NewWriter().WriteIfAbsent(filepath.Join(dir, "a.jpg"), []byte("x"))
	require.Error(t, err)
	assert.True(t, errs.IsFilesystem(err))

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()

	ok, err := w.Exists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "there"), nil, 0644))
	ok, err = w.Exists(filepath.Join(dir, "there"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReplaceOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations-info.md")
	w := NewWriter()

	require.NoError(t, w.Replace(path, []byte("one")))
	require.NoError(t, w.Replace(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestWriteOutcomeString(t *testing.T) {
	assert.Equal(t, "written", Written.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "unknown", WriteOutcome(0).String())
}
