package sql

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/pressly/goose"
)

// Migrate applies every pending goose migration found in dir; dialect is
// one of goose's dialects (mysql, postgres, sqlite3)
func Migrate(db *sql.DB, dialect, dir string) error {
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrapf(err, "unsupported migration dialect %s", dialect)
	}
	if err := goose.Up(db, dir); err != nil {
		return errors.Wrapf(err, "unable to apply migrations from %s", dir)
	}
	return nil
}
