package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/prism-xos/prism-core/internal/media/models"
)

const ledgerName = "schema_migrations"

var (
	errDuplicateMigration = errors.New("migration already registered")
	errUnknownMigration   = errors.New("database was migrated by a newer build")
)

type MigrateFunc func(ctx context.Context, tx *sqlx.Tx, now time.Time) error

type Migration struct {
	Name string
	Up   MigrateFunc
}

// Migrator applies named migrations in registration order. The
// schema_migrations ledger records each applied name so a migration runs
// at most once per database file. Migrations are append-only.
type Migrator struct {
	migrations []Migration
	clock      func() time.Time
	logger     zerolog.Logger
}

func NewMigrator(logger zerolog.Logger) *Migrator {
	return &Migrator{
		clock:  time.Now,
		logger: logger.With().Str("component", "migrator").Logger(),
	}
}

// DefaultMigrator has every migration of the application schema registered.
func DefaultMigrator(logger zerolog.Logger) *Migrator {
	m := NewMigrator(logger)
	for _, mig := range migrations {
		// names in the table are unique
		_ = m.Register(mig.Name, mig.Up)
	}
	return m
}

func (m *Migrator) Register(name string, up MigrateFunc) error {
	if name == "" || up == nil {
		return models.ErrInvalidArgument
	}
	for _, existing := range m.migrations {
		if existing.Name == name {
			return fmt.Errorf("%w: %s", errDuplicateMigration, name)
		}
	}
	m.migrations = append(m.migrations, Migration{Name: name, Up: up})
	return nil
}

func (m *Migrator) Names() []string {
	names := make([]string, len(m.migrations))
	for i, mig := range m.migrations {
		names[i] = mig.Name
	}
	return names
}

// Migrate applies every pending migration, each in its own transaction
// together with its ledger row. On failure the database keeps the state it
// had before the failing migration.
func (m *Migrator) Migrate(ctx context.Context, db *sqlx.DB) error {
	const createLedger = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			identifier TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, createLedger); err != nil {
		return &models.MigrationError{Name: ledgerName, Err: err}
	}

	applied, err := m.Applied(ctx, db)
	if err != nil {
		return &models.MigrationError{Name: ledgerName, Err: err}
	}
	known := make(map[string]bool, len(m.migrations))
	for _, mig := range m.migrations {
		known[mig.Name] = true
	}
	for _, name := range applied {
		if !known[name] {
			return &models.MigrationError{Name: name, Err: errUnknownMigration}
		}
	}

	for _, mig := range m.migrations {
		ran, err := m.apply(ctx, db, mig)
		if err != nil {
			m.logger.Error().Err(err).Str("migration", mig.Name).Msg("migration failed")
			return &models.MigrationError{Name: mig.Name, Err: err}
		}
		if ran {
			m.logger.Info().Str("migration", mig.Name).Msg("migration applied")
		}
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, db *sqlx.DB, mig Migration) (bool, error) {
	ran := false
	err := withTx(ctx, db, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM schema_migrations WHERE identifier = ?`, mig.Name); err != nil {
			return fmt.Errorf("check ledger: %w", err)
		}
		if count > 0 {
			return nil
		}

		now := m.clock()
		if err := mig.Up(ctx, tx, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (identifier, applied_at) VALUES (?, ?)`, mig.Name, now.Unix()); err != nil {
			return fmt.Errorf("record migration: %w", err)
		}
		ran = true
		return nil
	})
	return ran, err
}

// Applied lists the ledger in the order migrations were applied.
func (m *Migrator) Applied(ctx context.Context, q sqlx.QueryerContext) ([]string, error) {
	var names []string
	if err := sqlx.SelectContext(ctx, q, &names,
		`SELECT identifier FROM schema_migrations ORDER BY applied_at, rowid`); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return names, nil
}
