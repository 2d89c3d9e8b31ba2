package sqlite

import (
	"errors"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// IsConstraint reports whether err carries an SQLite constraint violation
// (foreign key, unique, not null, check).
func IsConstraint(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code()&0xff == sqlite3lib.SQLITE_CONSTRAINT
}
