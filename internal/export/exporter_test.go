package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prism-xos/prism-core/internal/media/models"
	"github.com/prism-xos/prism-core/internal/storage/sqlite"
)

func newTestExporter(t *testing.T) (*Exporter, string) {
	t.Helper()
	dir := t.TempDir()
	return New(nil, dir, zerolog.Nop()), dir
}

func TestResolveConflict(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.srt")
	assert.Equal(t, path, ResolveConflict(path))

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assert.Equal(t, filepath.Join(dir, "test-1.srt"), ResolveConflict(path))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "test-1.srt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test-2.srt"), nil, 0o644))
	assert.Equal(t, filepath.Join(dir, "test-3.srt"), ResolveConflict(path))
}

func TestWrite(t *testing.T) {
	e, dir := newTestExporter(t)
	dest := filepath.Join(dir, "video.en.srt")

	got, err := e.Write(dest, []models.Segment{cue(0, 2, "first"), cue(2, 4, "second")})
	require.NoError(t, err)
	assert.Equal(t, dest, got)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:02,000\nfirst\n\n2\n00:00:02,000 --> 00:00:04,000\nsecond\n\n", string(data))
	assert.NotEqual(t, []byte{0xEF, 0xBB, 0xBF}, data[:3], "no BOM")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file cleaned up")
}

func TestWriteKeepsExistingFile(t *testing.T) {
	e, dir := newTestExporter(t)
	dest := filepath.Join(dir, "video.en.srt")
	require.NoError(t, os.WriteFile(dest, []byte("keep me"), 0o644))

	got, err := e.Write(dest, []models.Segment{cue(0, 1, "new")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "video.en-1.srt"), got)

	old, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(old))
}

func TestWriteRejectsInvalidInput(t *testing.T) {
	e, dir := newTestExporter(t)
	dest := filepath.Join(dir, "x.srt")

	_, err := e.Write(dest, nil)
	require.ErrorIs(t, err, ErrEmptySubtitles)

	_, err = e.Write(dest, []models.Segment{cue(0, 1, "a"), cue(2, 1, "b")})
	var ite *InvalidTimestampsError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, 1, ite.Index)

	_, err = os.Stat(dest)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteInsufficientSpace(t *testing.T) {
	e, dir := newTestExporter(t)
	e.freeSpace = func(string) (uint64, error) { return 10, nil }

	_, err := e.Write(filepath.Join(dir, "x.srt"), []models.Segment{cue(0, 1, "a fairly long line of text")})
	var ise *InsufficientSpaceError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, uint64(10), ise.Available)
	assert.Greater(t, ise.Required, ise.Available)
}

func TestExportMedia(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.OpenInMemory(ctx, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	media := sqlite.NewMediaRepo(db)
	subs := sqlite.NewSubtitleRepo(db)
	m := models.NewMediaRecord("/Movies/talk.mov", 30)
	require.NoError(t, media.Save(ctx, m))

	dir := t.TempDir()
	e := New(subs, dir, zerolog.Nop())

	_, err = e.ExportMedia(ctx, m, "en")
	require.ErrorIs(t, err, ErrEmptySubtitles)

	require.NoError(t, subs.SaveBatch(ctx, []models.Segment{
		{ID: "b", MediaID: m.ID, StartTime: 3, EndTime: 4, Text: "world"},
		{ID: "a", MediaID: m.ID, StartTime: 1, EndTime: 2, Text: "hello"},
	}))

	path, err := e.ExportMedia(ctx, m, "en")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "talk.en.srt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:02,000\nhello\n\n2\n00:00:03,000 --> 00:00:04,000\nworld\n\n", string(data))

	_, err = e.ExportMedia(ctx, m, "")
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}
