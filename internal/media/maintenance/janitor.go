package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// AudioCache is the part of paths.Resolver the janitor needs.
type AudioCache interface {
	CacheSize() (int64, error)
	ClearAudioCache() error
}

type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// Janitor keeps local storage in shape while the process runs: it clears
// the audio cache once it grows past MaxCacheBytes and checkpoints the WAL.
type Janitor struct {
	cache         AudioCache
	db            Checkpointer
	interval      time.Duration
	maxCacheBytes int64
	logger        zerolog.Logger
}

type JanitorConfig struct {
	Cache AudioCache
	DB    Checkpointer
	// Interval between passes.
	Interval time.Duration
	// MaxCacheBytes of zero disables cache trimming.
	MaxCacheBytes int64
	Logger        zerolog.Logger
}

func NewJanitor(cfg JanitorConfig) (*Janitor, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("audio cache is required")
	}
	if cfg.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got: %v", cfg.Interval)
	}
	if cfg.MaxCacheBytes < 0 {
		return nil, fmt.Errorf("max cache bytes must not be negative, got: %d", cfg.MaxCacheBytes)
	}

	return &Janitor{
		cache:         cfg.Cache,
		db:            cfg.DB,
		interval:      cfg.Interval,
		maxCacheBytes: cfg.MaxCacheBytes,
		logger:        cfg.Logger.With().Str("component", "janitor").Logger(),
	}, nil
}

// Start runs a pass every interval until ctx is cancelled. A failed pass
// is logged and the loop keeps going.
func (j *Janitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info().
		Dur("interval", j.interval).
		Int64("max_cache_bytes", j.maxCacheBytes).
		Msg("janitor started")

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().
				Err(ctx.Err()).
				Msg("janitor stopped")
			return ctx.Err()

		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error().
					Err(err).
					Msg("maintenance pass failed")
			}
		}
	}
}

// RunOnce performs a single pass. Both steps are attempted even when the
// first one fails.
func (j *Janitor) RunOnce(ctx context.Context) error {
	cacheErr := j.trimCache()

	if err := j.db.Checkpoint(ctx); err != nil {
		if cacheErr != nil {
			return fmt.Errorf("%w; checkpoint: %w", cacheErr, err)
		}
		return fmt.Errorf("checkpoint: %w", err)
	}
	return cacheErr
}

func (j *Janitor) trimCache() error {
	if j.maxCacheBytes == 0 {
		return nil
	}

	size, err := j.cache.CacheSize()
	if err != nil {
		return fmt.Errorf("cache size: %w", err)
	}
	if size <= j.maxCacheBytes {
		j.logger.Debug().Int64("cache_bytes", size).Msg("audio cache within limit")
		return nil
	}

	if err := j.cache.ClearAudioCache(); err != nil {
		return fmt.Errorf("clear audio cache: %w", err)
	}
	j.logger.Info().
		Int64("cache_bytes", size).
		Int64("max_cache_bytes", j.maxCacheBytes).
		Msg("audio cache cleared")
	return nil
}
