package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid arguments")
)

// IOError reports a file system failure. It is fatal during startup and
// recoverable for cache maintenance.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// MigrationError names the schema migration that failed.
type MigrationError struct {
	Name string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %q: %v", e.Name, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// ConnectionError means the store could not be opened or is unusable.
type ConnectionError struct {
	Path string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database %s: %v", e.Path, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

type ConstraintKind string

const (
	PrimaryKeyConstraint ConstraintKind = "primary key"
	ForeignKeyConstraint ConstraintKind = "foreign key"
	UniqueConstraint     ConstraintKind = "unique"
	NotNullConstraint    ConstraintKind = "not null"
	CheckConstraint      ConstraintKind = "check"
	OtherConstraint      ConstraintKind = "constraint"
)

// ConstraintError is returned when a write violates a schema constraint.
// It matches ErrConflict with errors.Is.
type ConstraintError struct {
	Kind ConstraintKind
	Err  error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s violation: %v", e.Kind, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool {
	return target == ErrConflict
}
