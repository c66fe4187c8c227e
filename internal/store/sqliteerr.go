package store

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// isForeignKeyViolation reports whether err is a SQLite foreign-key
// constraint failure, as opposed to a unique-constraint violation or any
// other error.
func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	// Some builds/drivers surface this as a plain string; fall back to a
	// substring check so the skip-and-warn path still triggers.
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
