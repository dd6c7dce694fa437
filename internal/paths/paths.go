// Package paths derives the on-disk layout of the application's data
// directory: the database, the audio cache, subtitle exports and models.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/prism-xos/prism-core/internal/media/models"
)

const (
	DatabaseFileName = "prism.db"

	databaseDir   = "Database"
	modelsDir     = "Models"
	audioCacheDir = "AudioCache"
	exportsDir    = "Exports"
)

// Resolver maps an application identity to its directory tree.
type Resolver struct {
	root string
}

// New roots the tree at <user config dir>/<appID>, which on macOS is
// ~/Library/Application Support/<appID>.
func New(appID string) (*Resolver, error) {
	if strings.TrimSpace(appID) == "" {
		return nil, fmt.Errorf("app id: %w", models.ErrInvalidArgument)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, &models.IOError{Op: "resolve", Path: "user config dir", Err: err}
	}
	return &Resolver{root: filepath.Join(base, appID)}, nil
}

// NewWithRoot uses root as the application support directory.
func NewWithRoot(root string) *Resolver {
	return &Resolver{root: filepath.Clean(root)}
}

func (r *Resolver) Root() string        { return r.root }
func (r *Resolver) DatabaseDir() string { return filepath.Join(r.root, databaseDir) }
func (r *Resolver) Database() string    { return filepath.Join(r.DatabaseDir(), DatabaseFileName) }
func (r *Resolver) Models() string      { return filepath.Join(r.root, modelsDir) }
func (r *Resolver) AudioCache() string  { return filepath.Join(r.root, audioCacheDir) }
func (r *Resolver) Exports() string     { return filepath.Join(r.root, exportsDir) }

// EnsureDirectoriesExist creates every directory of the layout.
func (r *Resolver) EnsureDirectoriesExist() error {
	for _, dir := range []string{r.root, r.DatabaseDir(), r.Models(), r.AudioCache(), r.Exports()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &models.IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	return nil
}

// CacheSize sums the sizes of all regular files under the audio cache.
// Files removed while walking are skipped.
func (r *Resolver) CacheSize() (int64, error) {
	var total int64
	err := filepath.WalkDir(r.AudioCache(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, &models.IOError{Op: "walk", Path: r.AudioCache(), Err: err}
	}
	return total, nil
}

// ClearAudioCache swaps the cache directory for an empty one and then
// removes the old contents, so callers never see a half-deleted cache.
// Between the two renames the cache path briefly does not exist. Readers
// such as CacheSize treat that as an empty cache; writers that race with a
// clear get fs.ErrNotExist and should MkdirAll the cache and retry.
func (r *Resolver) ClearAudioCache() error {
	cache := r.AudioCache()
	if err := os.MkdirAll(r.root, 0o755); err != nil {
		return &models.IOError{Op: "mkdir", Path: r.root, Err: err}
	}

	fresh, err := os.MkdirTemp(r.root, ".audiocache-new-")
	if err != nil {
		return &models.IOError{Op: "mkdir", Path: r.root, Err: err}
	}

	stale := ""
	if _, err := os.Stat(cache); err == nil {
		stale = fresh + "-old"
		if err := os.Rename(cache, stale); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				_ = os.Remove(fresh)
				return &models.IOError{Op: "rename", Path: cache, Err: err}
			}
			// another clear moved it first
			stale = ""
		}
	}

	if err := os.Rename(fresh, cache); err != nil {
		if stale != "" {
			_ = os.Rename(stale, cache)
		}
		_ = os.Remove(fresh)
		return &models.IOError{Op: "rename", Path: fresh, Err: err}
	}
	if err := os.Chmod(cache, 0o755); err != nil {
		return &models.IOError{Op: "chmod", Path: cache, Err: err}
	}

	if stale != "" {
		// best effort, the swap above already succeeded
		_ = os.RemoveAll(stale)
	}
	return nil
}

// RemoveDatabase deletes the database file and its WAL companions.
func (r *Resolver) RemoveDatabase() error {
	db := r.Database()
	if err := os.Remove(db); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &models.IOError{Op: "remove", Path: db, Err: err}
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(db + suffix)
	}
	return nil
}
