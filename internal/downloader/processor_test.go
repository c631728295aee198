package downloader

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tapestry-archive/internal/testutil"
	errs "tapestry-archive/pkg/errors"
	"tapestry-archive/pkg/logger"
	"tapestry-archive/pkg/media"
	"tapestry-archive/pkg/storage"
	"tapestry-archive/pkg/tapestry"
)

type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	errors map[string]error
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, _ tapestry.AuthContext, a tapestry.Attachment) (*tapestry.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, a.URL)

	if err, ok := f.errors[a.URL]; ok {
		return nil, err
	}
	data := f.bodies[a.URL]
	return &tapestry.Payload{Data: data, ContentType: media.Sniff(data)}, nil
}

func newProcessor(t *testing.T, f Fetcher) (*Processor, string) {
	t.Helper()
	dir := t.TempDir()
	auth, err := tapestry.NewAuthContext("cookie", "oak")
	require.NoError(t, err)
	return NewProcessor(f, storage.NewNamer(dir), storage.NewWriter(), auth, logger.NewNopLogger()), dir
}

func task(url string, kind tapestry.Kind) tapestry.DownloadTask {
	return tapestry.DownloadTask{
		ObservationID:    "1",
		ObservationDate:  time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		ObservationTitle: "Nap Time",
		Attachment:       tapestry.Attachment{URL: url, Kind: kind},
	}
}

func TestProcessImageUsesExifTitle(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{"img": testutil.JPEGWithDescription("Sleeping")}}
	p, dir := newProcessor(t, f)

	res := p.Process(context.Background(), task("img", tapestry.Image))
	require.NoError(t, res.Err)
	assert.Equal(t, storage.Written, res.Outcome)
	assert.Equal(t, filepath.Join(dir, "2023-05-01 Nap Time - Sleeping.jpg"), res.Path)
	assert.True(t, res.Fetched)
	assert.FileExists(t, res.Path)
}

func TestProcessVideo(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{"vid": testutil.MP4()}}
	p, dir := newProcessor(t, f)

	res := p.Process(context.Background(), task("vid", tapestry.Video))
	require.NoError(t, res.Err)
	assert.Equal(t, storage.Written, res.Outcome)
	assert.Equal(t, filepath.Join(dir, "2023-05-01 Nap Time.mp4"), res.Path)
}

func TestProcessSkipsExistingVideoWithoutFetching(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{"vid": testutil.MP4()}}
	p, dir := newProcessor(t, f)

	existing := filepath.Join(dir, "2023-05-01 Nap Time.mp4")
	require.NoError(t, os.WriteFile(existing, []byte("earlier run"), 0644))

	res := p.Process(context.Background(), task("vid", tapestry.Video))
	require.NoError(t, res.Err)
	assert.Equal(t, storage.Skipped, res.Outcome)
	assert.Equal(t, existing, res.Path)
	assert.False(t, res.Fetched)
	assert.Empty(t, f.calls)
}

func TestProcessSkipsExistingImage(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{"img": testutil.PlainJPEG()}}
	p, dir := newProcessor(t, f)

	existing := filepath.Join(dir, "2023-05-01 Nap Time.jpg")
	require.NoError(t, os.WriteFile(existing, testutil.PlainJPEG(), 0644))

	res := p.Process(context.Background(), task("img", tapestry.Image))
	require.NoError(t, res.Err)
	assert.Equal(t, storage.Skipped, res.Outcome)
	assert.Equal(t, existing, res.Path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestProcessImageDifferentFromStoredFileGetsSuffix(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{"img": testutil.PlainJPEG()}}
	p, dir := newProcessor(t, f)

	existing := filepath.Join(dir, "2023-05-01 Nap Time.jpg")
	require.NoError(t, os.WriteFile(existing, []byte("earlier run"), 0644))

	res := p.Process(context.Background(), task("img", tapestry.Image))
	require.NoError(t, res.Err)
	assert.Equal(t, storage.Written, res.Outcome)
	assert.Equal(t, filepath.Join(dir, "2023-05-01 Nap Time (2).jpg"), res.Path)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "earlier run", string(data))

	data, err = os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, testutil.PlainJPEG(), data)
}

func TestProcessVideoExtensionFromURL(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{"/m/clip.mov": testutil.MOV()}}
	p, dir := newProcessor(t, f)

	res := p.Process(context.Background(), task("/m/clip.mov", tapestry.Video))
	require.NoError(t, res.Err)
	assert.Equal(t, storage.Written, res.Outcome)
	assert.Equal(t, filepath.Join(dir, "2023-05-01 Nap Time.mov"), res.Path)

	again := p.Process(context.Background(), task("/m/clip.mov", tapestry.Video))
	require.NoError(t, again.Err)
	assert.Equal(t, storage.Skipped, again.Outcome)
	assert.Equal(t, res.Path, again.Path)
	assert.Len(t, f.calls, 1)
}

func TestProcessCollidingAttachments(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{
		"a": testutil.PlainJPEG(),
		"b": testutil.PlainJPEG(),
	}}
	p, dir := newProcessor(t, f)

	first := p.Process(context.Background(), task("a", tapestry.Image))
	second := p.Process(context.Background(), task("b", tapestry.Image))

	require.NoError(t, first.Err)
	require.NoError(t, second.Err)
	assert.Equal(t, filepath.Join(dir, "2023-05-01 Nap Time.jpg"), first.Path)
	assert.Equal(t, filepath.Join(dir, "2023-05-01 Nap Time (2).jpg"), second.Path)
	assert.Equal(t, storage.Written, second.Outcome)
}

func TestProcessFetchError(t *testing.T) {
	f := &fakeFetcher{errors: map[string]error{"gone": errs.NotFound("gone", 404)}}
	p, dir := newProcessor(t, f)

	res := p.Process(context.Background(), task("gone", tapestry.Image))
	require.Error(t, res.Err)
	assert.True(t, errs.IsNotFound(res.Err))
	assert.Zero(t, res.Outcome)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessWriteError(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{"img": testutil.PlainJPEG()}}

	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	auth, err := tapestry.NewAuthContext("cookie", "oak")
	require.NoError(t, err)
	p := NewProcessor(f, storage.NewNamer(filepath.Join(blocker, "images")), storage.NewWriter(), auth, logger.NewNopLogger())

	res := p.Process(context.Background(), task("img", tapestry.Image))
	require.Error(t, res.Err)
	assert.True(t, errs.IsFilesystem(res.Err))
}
