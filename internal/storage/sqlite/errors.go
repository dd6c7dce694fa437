package sqlite

import (
	"errors"
	"fmt"
	"strings"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/prism-xos/prism-core/internal/media/models"
)

// wrapErr annotates err with op and turns constraint failures into
// *models.ConstraintError.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *sqlitedriver.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%s: %w", op, &models.ConstraintError{Kind: constraintKind(se.Code(), se.Error()), Err: err})
	}
	return fmt.Errorf("%s: %w", op, err)
}

func constraintKind(code int, msg string) models.ConstraintKind {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return models.PrimaryKeyConstraint
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return models.ForeignKeyConstraint
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return models.UniqueConstraint
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return models.NotNullConstraint
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return models.CheckConstraint
	}

	// primary result code only, fall back to the message
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return models.ForeignKeyConstraint
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return models.UniqueConstraint
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return models.NotNullConstraint
	case strings.Contains(msg, "CHECK constraint failed"):
		return models.CheckConstraint
	default:
		return models.OtherConstraint
	}
}
