package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/prism-xos/prism-core/internal/media/models"
	"github.com/prism-xos/prism-core/internal/paths"
)

const (
	driverName = "sqlite"
	memoryPath = ":memory:"

	defaultBusyTimeout  = 5 * time.Second
	defaultMaxReadConns = 4
)

var ErrClosed = errors.New("database closed")

type Config struct {
	// Path of the database file. Defaults to Paths.Database().
	Path string
	// Paths, when set, has its directory tree created before opening.
	Paths *paths.Resolver

	BusyTimeout  time.Duration
	MaxReadConns int

	// Migrator defaults to DefaultMigrator.
	Migrator *Migrator
	Logger   zerolog.Logger
}

func (c *Config) applyDefaults() {
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
	if c.MaxReadConns <= 0 {
		c.MaxReadConns = defaultMaxReadConns
	}
	if c.Migrator == nil {
		c.Migrator = DefaultMigrator(c.Logger)
	}
}

// Manager owns the connections to one database file. Writes go through a
// single connection guarded by a semaphore; reads use a separate pool so
// that, in WAL mode, they see the last committed snapshot while a write is
// in flight.
type Manager struct {
	writer   *sqlx.DB
	reader   *sqlx.DB
	writeSem *semaphore.Weighted
	path     string
	logger   zerolog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open creates the directory layout, opens the database file, configures
// WAL with synchronous=NORMAL and foreign keys, and applies pending
// migrations. Any error means the store must not be used.
func Open(ctx context.Context, cfg Config) (*Manager, error) {
	cfg.applyDefaults()

	if cfg.Paths != nil {
		if err := cfg.Paths.EnsureDirectoriesExist(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(cfg.Path) == "" {
			cfg.Path = cfg.Paths.Database()
		}
	}
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, &models.ConnectionError{Path: cfg.Path, Err: errors.New("database path required")}
	}

	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, &models.ConnectionError{Path: cfg.Path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, &models.IOError{Op: "mkdir", Path: filepath.Dir(abs), Err: err}
	}

	logger := cfg.Logger.With().Str("component", "sqlite").Str("path", abs).Logger()

	writer, err := connect(ctx, writerDSN(abs, cfg.BusyTimeout), 1)
	if err != nil {
		return nil, &models.ConnectionError{Path: abs, Err: err}
	}

	var mode string
	if err := writer.GetContext(ctx, &mode, `PRAGMA journal_mode`); err != nil {
		writer.Close()
		return nil, &models.ConnectionError{Path: abs, Err: fmt.Errorf("read journal mode: %w", err)}
	}
	if !strings.EqualFold(mode, "wal") {
		writer.Close()
		return nil, &models.ConnectionError{Path: abs, Err: fmt.Errorf("journal mode is %q, want wal", mode)}
	}

	if err := cfg.Migrator.Migrate(ctx, writer); err != nil {
		writer.Close()
		return nil, err
	}

	reader, err := connect(ctx, readerDSN(abs, cfg.BusyTimeout), cfg.MaxReadConns)
	if err != nil {
		writer.Close()
		return nil, &models.ConnectionError{Path: abs, Err: err}
	}

	logger.Info().
		Int("read_conns", cfg.MaxReadConns).
		Dur("busy_timeout", cfg.BusyTimeout).
		Msg("database opened")

	return &Manager{
		writer:   writer,
		reader:   reader,
		writeSem: semaphore.NewWeighted(1),
		path:     abs,
		logger:   logger,
	}, nil
}

// OpenInMemory returns a migrated manager backed by a private in-memory
// database. Reads and writes share its only connection, so reads wait for
// an in-flight write instead of seeing a snapshot.
func OpenInMemory(ctx context.Context, logger zerolog.Logger) (*Manager, error) {
	db, err := sqlx.Open(driverName, memoryPath)
	if err != nil {
		return nil, &models.ConnectionError{Path: memoryPath, Err: err}
	}
	// the database lives and dies with this one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	for _, pragma := range []string{`PRAGMA foreign_keys = ON`, `PRAGMA synchronous = NORMAL`} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, &models.ConnectionError{Path: memoryPath, Err: fmt.Errorf("%s: %w", pragma, err)}
		}
	}

	if err := DefaultMigrator(logger).Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{
		writer:   db,
		reader:   db,
		writeSem: semaphore.NewWeighted(1),
		path:     memoryPath,
		logger:   logger.With().Str("component", "sqlite").Str("path", memoryPath).Logger(),
	}, nil
}

func connect(ctx context.Context, dsn string, maxConns int) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return db, nil
}

func writerDSN(path string, busy time.Duration) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)",
		path, busy.Milliseconds())
}

func readerDSN(path string, busy time.Duration) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=query_only(1)",
		path, busy.Milliseconds())
}

// Path is the absolute database file path, or ":memory:".
func (m *Manager) Path() string {
	return m.path
}

// Write runs fn in a transaction that commits when fn returns nil and rolls
// back otherwise. Writers are serialized. A caller whose ctx ends while
// waiting for its turn gets ctx.Err() and fn never runs.
func (m *Manager) Write(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if m.closed.Load() {
		return &models.ConnectionError{Path: m.path, Err: ErrClosed}
	}
	if err := m.writeSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer m.writeSem.Release(1)

	return withTx(ctx, m.writer, fn)
}

// Read runs fn in a transaction against a consistent snapshot. The
// transaction is always rolled back; fn must not write.
func (m *Manager) Read(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if m.closed.Load() {
		return &models.ConnectionError{Path: m.path, Err: ErrClosed}
	}
	tx, err := m.reader.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	return fn(tx)
}

// WriteValue is Write for functions that produce a value.
func WriteValue[T any](ctx context.Context, m *Manager, fn func(tx *sqlx.Tx) (T, error)) (T, error) {
	var out T
	err := m.Write(ctx, func(tx *sqlx.Tx) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// ReadValue is Read for functions that produce a value.
func ReadValue[T any](ctx context.Context, m *Manager, fn func(tx *sqlx.Tx) (T, error)) (T, error) {
	var out T
	err := m.Read(ctx, func(tx *sqlx.Tx) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Checkpoint copies WAL frames back into the database file without
// blocking readers. It is a no-op for in-memory databases.
func (m *Manager) Checkpoint(ctx context.Context) error {
	if m.path == memoryPath {
		return nil
	}
	if m.closed.Load() {
		return &models.ConnectionError{Path: m.path, Err: ErrClosed}
	}
	if err := m.writeSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer m.writeSem.Release(1)

	if _, err := m.writer.ExecContext(ctx, `PRAGMA wal_checkpoint(PASSIVE)`); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}

// Close waits for an in-flight write, checkpoints the WAL and closes both pools.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.closed.Store(true)

		_ = m.writeSem.Acquire(context.Background(), 1)
		defer m.writeSem.Release(1)

		if m.path != memoryPath {
			if _, err := m.writer.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
				m.logger.Warn().Err(err).Msg("wal checkpoint failed")
			}
		}

		var errs []error
		if m.reader != m.writer {
			errs = append(errs, m.reader.Close())
		}
		errs = append(errs, m.writer.Close())
		m.closeErr = errors.Join(errs...)

		m.logger.Info().Msg("database closed")
	})
	return m.closeErr
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
