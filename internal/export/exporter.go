package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prism-xos/prism-core/internal/media/models"
	"github.com/prism-xos/prism-core/internal/media/repository"
)

type Exporter struct {
	segments  repository.SegmentReader
	dir       string
	logger    zerolog.Logger
	freeSpace func(dir string) (uint64, error)
}

// New returns an exporter that writes into dir, usually paths.Resolver.Exports.
func New(segments repository.SegmentReader, dir string, logger zerolog.Logger) *Exporter {
	return &Exporter{
		segments:  segments,
		dir:       dir,
		logger:    logger.With().Str("component", "export").Logger(),
		freeSpace: availableBytes,
	}
}

// ExportMedia writes every stored segment of m to the exports directory
// and returns the path actually written.
func (e *Exporter) ExportMedia(ctx context.Context, m models.MediaRecord, locale string) (string, error) {
	if locale == "" {
		return "", models.ErrInvalidArgument
	}
	segments, err := e.segments.FindAll(ctx, m.ID)
	if err != nil {
		return "", err
	}
	return e.Write(filepath.Join(e.dir, FileName(m.FilePath, locale)), segments)
}

// Write renders segments into dest. When dest exists a -N suffix is
// appended to the name. The file appears atomically, UTF-8 without BOM.
func (e *Exporter) Write(dest string, segments []models.Segment) (string, error) {
	if err := Validate(segments); err != nil {
		return "", err
	}
	started := time.Now()
	data := []byte(Render(segments))

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &models.IOError{Op: "create export dir", Path: dir, Err: err}
	}

	// Unknown free space is not fatal, the write itself will fail.
	if avail, err := e.freeSpace(dir); err == nil && avail < uint64(len(data)) {
		return "", &InsufficientSpaceError{Required: uint64(len(data)), Available: avail}
	}

	final := ResolveConflict(dest)
	if err := writeAtomic(final, data); err != nil {
		return "", err
	}

	e.logger.Info().
		Str("path", final).
		Int("cues", len(segments)).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(started)).
		Msg("subtitles exported")
	return final, nil
}

// ResolveConflict returns path, or name-1.ext, name-2.ext, ... for the
// first one that does not exist yet.
func ResolveConflict(path string) string {
	if !exists(path) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := stem + "-" + strconv.Itoa(n) + ext
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*"+Extension)
	if err != nil {
		return &models.IOError{Op: "create temp export", Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &models.IOError{Op: "write export", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &models.IOError{Op: "sync export", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &models.IOError{Op: "close export", Path: path, Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return &models.IOError{Op: "chmod export", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &models.IOError{Op: "rename export", Path: path, Err: fmt.Errorf("from %s: %w", tmp.Name(), err)}
	}
	return nil
}
