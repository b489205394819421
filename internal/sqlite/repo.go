// Package sqlite implements the flock repositories on an in-process SQLite
// database.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	"github.com/jdholdren/flock/internal/flock"
	"github.com/jdholdren/flock/internal/migrations"
)

// Ensure Repo implements the Repository interface
var _ flock.Repository = Repo{}

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repo {
	return Repo{db: db}
}

// OpenMemory opens a fresh, migrated in-memory database. Every connection to
// ":memory:" gets its own database, so the pool is pinned to one connection
// that is never recycled.
func OpenMemory(ctx context.Context) (*sqlx.DB, error) {
	dbx, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	dbx.SetMaxOpenConns(1)
	dbx.SetMaxIdleConns(1)
	dbx.SetConnMaxLifetime(0)
	dbx.SetConnMaxIdleTime(0)

	if err := migrations.Up(ctx, dbx); err != nil {
		dbx.Close()
		return nil, err
	}

	return dbx, nil
}

// SQLITE_CONSTRAINT_UNIQUE
const codeUniqueViolation = 2067

func isUniqueViolation(err error) bool {
	sqliteErr := &sqlite.Error{}
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == codeUniqueViolation
}

// Timestamps are stored as unix nanoseconds so that ORDER BY sorts them
// chronologically.
func toNanos(t time.Time) int64 {
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
