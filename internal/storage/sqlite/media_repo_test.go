package sqlite

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prism-xos/prism-core/internal/media/models"
)

func testMedia(id string, updatedAt int64) models.MediaRecord {
	return models.MediaRecord{
		ID:        id,
		FilePath:  "/media/" + id + ".mp4",
		Duration:  120,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
}

func strPtr(s string) *string { return &s }

func TestMediaRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepo(newMemoryManager(t))

	want := models.MediaRecord{
		ID:                  "m1",
		FilePath:            "/Users/me/Movies/talk.mov",
		Duration:            3723.25,
		RecognitionProgress: 0.42,
		ModelID:             strPtr("whisper-base"),
		Language:            strPtr("en"),
		CreatedAt:           1_700_000_000,
		UpdatedAt:           1_700_000_500,
	}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Find(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	bare := testMedia("m2", 5)
	require.NoError(t, repo.Save(ctx, bare))
	got, err = repo.Find(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, bare, *got)
	assert.Nil(t, got.ModelID)
	assert.Nil(t, got.Language)
}

func TestMediaFindMissing(t *testing.T) {
	repo := NewMediaRepo(newMemoryManager(t))

	got, err := repo.Find(context.Background(), "nope")
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Nil(t, got)
}

func TestMediaSaveDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepo(newMemoryManager(t))

	require.NoError(t, repo.Save(ctx, testMedia("m1", 1)))
	err := repo.Save(ctx, testMedia("m1", 2))

	require.ErrorIs(t, err, models.ErrConflict)
	var ce *models.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, []models.ConstraintKind{models.PrimaryKeyConstraint, models.UniqueConstraint}, ce.Kind)
}

func TestMediaSaveRejectsOutOfRangeProgress(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepo(newMemoryManager(t))

	for _, p := range []float64{-0.5, 1.5, math.NaN()} {
		m := testMedia("m1", 1)
		m.RecognitionProgress = p
		require.ErrorIs(t, repo.Save(ctx, m), models.ErrInvalidArgument)
	}

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMediaFindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepo(newMemoryManager(t))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, testMedia(id, int64(i))))
	}

	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMediaFindRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepo(newMemoryManager(t))

	for _, m := range []models.MediaRecord{
		testMedia("m1", 100),
		testMedia("m2", 500),
		testMedia("m3", 300),
		testMedia("m4", 400),
		testMedia("m5", 200),
	} {
		require.NoError(t, repo.Save(ctx, m))
	}

	recent, err := repo.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "m2", recent[0].ID)
	assert.Equal(t, "m4", recent[1].ID)

	all, err := repo.FindRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5, "default limit covers all five")
	assert.Equal(t, "m1", all[4].ID)
}

func TestMediaFindRecentDefaultLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepo(newMemoryManager(t))

	for i := 0; i < 12; i++ {
		require.NoError(t, repo.Save(ctx, testMedia(string(rune('a'+i)), int64(i))))
	}

	recent, err := repo.FindRecent(ctx, -1)
	require.NoError(t, err)
	assert.Len(t, recent, DefaultRecentLimit)
}

func TestMediaUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepo(newMemoryManager(t))

	m := testMedia("m1", 10)
	require.NoError(t, repo.Save(ctx, m))

	m.FilePath = "/moved/m1.mp4"
	m.Language = strPtr("ja")
	m.RecognitionProgress = 1
	m.UpdatedAt = 20
	require.NoError(t, repo.Update(ctx, m))

	got, err := repo.Find(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, m, *got)
	assert.True(t, got.IsRecognitionComplete())
}

func TestMediaUpdateMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepo(newMemoryManager(t))

	err := repo.Update(ctx, testMedia("ghost", 1))
	require.ErrorIs(t, err, models.ErrNotFound)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "update must not insert")
}

func TestMediaUpdateProgress(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepo(newMemoryManager(t))
	fixed := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return fixed }

	m := testMedia("m1", 10)
	m.Language = strPtr("en")
	require.NoError(t, repo.Save(ctx, m))

	require.NoError(t, repo.UpdateProgress(ctx, "m1", 0.5))

	got, err := repo.Find(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 0.5, got.RecognitionProgress)
	assert.Equal(t, fixed.Unix(), got.UpdatedAt)
	// untouched columns
	assert.Equal(t, m.FilePath, got.FilePath)
	assert.Equal(t, m.CreatedAt, got.CreatedAt)
	assert.Equal(t, "en", *got.Language)
}

func TestMediaUpdateProgressClamps(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepo(newMemoryManager(t))
	require.NoError(t, repo.Save(ctx, testMedia("m1", 1)))

	cases := []struct {
		in   float64
		want float64
	}{
		{in: 1.7, want: 1},
		{in: -0.2, want: 0},
		{in: math.NaN(), want: 0},
		{in: 0.75, want: 0.75},
	}
	for _, tc := range cases {
		require.NoError(t, repo.UpdateProgress(ctx, "m1", tc.in))
		got, err := repo.Find(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.RecognitionProgress)
	}
}

func TestMediaUpdateProgressMissing(t *testing.T) {
	repo := NewMediaRepo(newMemoryManager(t))

	err := repo.UpdateProgress(context.Background(), "ghost", 0.3)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestMediaDeleteCascadesToSegments(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	media := NewMediaRepo(m)
	subs := NewSubtitleRepo(m)

	require.NoError(t, media.Save(ctx, testMedia("m1", 1)))
	require.NoError(t, media.Save(ctx, testMedia("m2", 1)))
	require.NoError(t, subs.SaveBatch(ctx, []models.Segment{
		testSegment("s1", "m1", 0, 5),
		testSegment("s2", "m1", 5, 10),
		testSegment("s3", "m1", 10, 15),
		testSegment("s4", "m2", 0, 5),
	}))

	require.NoError(t, media.Delete(ctx, "m1"))

	_, err := media.Find(ctx, "m1")
	require.ErrorIs(t, err, models.ErrNotFound)

	n, err := subs.Count(ctx, "m1")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = subs.Count(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "other media keeps its segments")
}

func TestMediaDeleteMissingIsNoop(t *testing.T) {
	repo := NewMediaRepo(newMemoryManager(t))

	require.NoError(t, repo.Delete(context.Background(), "ghost"))
}

func TestMediaSaveRejectsNonFiniteDuration(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepo(newMemoryManager(t))

	for _, d := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		m := testMedia("m1", 1)
		m.Duration = d
		require.ErrorIs(t, repo.Save(ctx, m), models.ErrInvalidArgument)
	}

	_, err := repo.Find(ctx, "m1")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestMediaAdvanceProgressNeverLowers(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepo(newMemoryManager(t))
	fixed := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return fixed }
	require.NoError(t, repo.Save(ctx, testMedia("m1", 1)))

	cases := []struct {
		in   float64
		want float64
	}{
		{in: 0.6, want: 0.6},
		{in: 0.3, want: 0.6},
		{in: 1.4, want: 1},
		{in: math.NaN(), want: 1},
	}
	for _, tc := range cases {
		require.NoError(t, repo.AdvanceProgress(ctx, "m1", tc.in))
		got, err := repo.Find(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.RecognitionProgress)
		assert.Equal(t, fixed.Unix(), got.UpdatedAt)
	}

	require.ErrorIs(t, repo.AdvanceProgress(ctx, "ghost", 0.5), models.ErrNotFound)
}

func TestMediaAdvanceProgressConcurrent(t *testing.T) {
	ctx := context.Background()
	m, _ := newFileManager(t)
	repo := NewMediaRepo(m)
	require.NoError(t, repo.Save(ctx, testMedia("m1", 1)))

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(p float64) {
			defer wg.Done()
			assert.NoError(t, repo.AdvanceProgress(ctx, "m1", p))
		}(float64(i) / 20)
	}
	wg.Wait()

	got, err := repo.Find(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.RecognitionProgress)
}
