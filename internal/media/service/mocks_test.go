package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/prism-xos/prism-core/internal/media/models"
	"github.com/prism-xos/prism-core/internal/transcribe"
)

type MediaStoreMock struct {
	mock.Mock
}

func (m *MediaStoreMock) Save(ctx context.Context, media models.MediaRecord) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MediaStoreMock) Find(ctx context.Context, id string) (*models.MediaRecord, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.MediaRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MediaStoreMock) FindAll(ctx context.Context) ([]models.MediaRecord, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]models.MediaRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MediaStoreMock) FindRecent(ctx context.Context, limit int) ([]models.MediaRecord, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]models.MediaRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MediaStoreMock) Update(ctx context.Context, media models.MediaRecord) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MediaStoreMock) UpdateProgress(ctx context.Context, id string, progress float64) error {
	args := m.Called(ctx, id, progress)
	return args.Error(0)
}

func (m *MediaStoreMock) AdvanceProgress(ctx context.Context, id string, progress float64) error {
	args := m.Called(ctx, id, progress)
	return args.Error(0)
}

func (m *MediaStoreMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type SubtitleStoreMock struct {
	mock.Mock
}

func (m *SubtitleStoreMock) FindInTimeRange(ctx context.Context, mediaID string, start, end float64) ([]models.Segment, error) {
	args := m.Called(ctx, mediaID, start, end)
	if v := args.Get(0); v != nil {
		return v.([]models.Segment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SubtitleStoreMock) FindAll(ctx context.Context, mediaID string) ([]models.Segment, error) {
	args := m.Called(ctx, mediaID)
	if v := args.Get(0); v != nil {
		return v.([]models.Segment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SubtitleStoreMock) Count(ctx context.Context, mediaID string) (int, error) {
	args := m.Called(ctx, mediaID)
	return args.Int(0), args.Error(1)
}

func (m *SubtitleStoreMock) Save(ctx context.Context, s models.Segment) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *SubtitleStoreMock) SaveBatch(ctx context.Context, segments []models.Segment) error {
	args := m.Called(ctx, segments)
	return args.Error(0)
}

func (m *SubtitleStoreMock) DeleteAll(ctx context.Context, mediaID string) (int64, error) {
	args := m.Called(ctx, mediaID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SubtitleStoreMock) DeleteInTimeRange(ctx context.Context, mediaID string, start, end float64) (int64, error) {
	args := m.Called(ctx, mediaID, start, end)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SubtitleStoreMock) ReplaceInTimeRange(ctx context.Context, mediaID string, start, end float64, segments []models.Segment) error {
	args := m.Called(ctx, mediaID, start, end, segments)
	return args.Error(0)
}

func (m *SubtitleStoreMock) CommitWindow(ctx context.Context, mediaID string, window models.TimeRange, segments []models.Segment, progress float64) error {
	args := m.Called(ctx, mediaID, window, segments, progress)
	return args.Error(0)
}

type EngineMock struct {
	mock.Mock
}

func (m *EngineMock) Transcribe(ctx context.Context, audio []byte, opts transcribe.Options) ([]models.Segment, error) {
	args := m.Called(ctx, audio, opts)
	if v := args.Get(0); v != nil {
		return v.([]models.Segment), args.Error(1)
	}
	return nil, args.Error(1)
}
