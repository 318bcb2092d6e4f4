package postgres

import (
	"database/sql"
	"errors"
)

// Package postgres implements the repository interfaces on top of
// database/sql with the pgx stdlib driver.

// IsNoRowsError reports whether err is the database/sql missing-row sentinel.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
