package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdholdren/flock/internal/flock"
)

type userRow struct {
	Seq         int64  `db:"seq"`
	ID          string `db:"id"`
	Username    string `db:"username"`
	DisplayName string `db:"display_name"`
	CreatedAt   int64  `db:"created_at"`
}

func (r userRow) user() flock.User {
	return flock.User{
		ID:          r.ID,
		Username:    r.Username,
		DisplayName: r.DisplayName,
		CreatedAt:   fromNanos(r.CreatedAt),
	}
}

// usersBatch is how many rows AllUsers reads per query.
const usersBatch = 100

func (r Repo) CreateUser(ctx context.Context, usr flock.User) (flock.User, error) {
	const q = `INSERT INTO users (id, username, display_name, created_at)
	VALUES (:id, :username, :display_name, :created_at);`

	row := userRow{
		ID:          usr.ID,
		Username:    usr.Username,
		DisplayName: usr.DisplayName,
		CreatedAt:   toNanos(usr.CreatedAt),
	}
	_, err := r.db.NamedExecContext(ctx, q, row)
	if isUniqueViolation(err) {
		if strings.Contains(err.Error(), "users.username") {
			return flock.User{}, fmt.Errorf("username %q is taken: %w", usr.Username, flock.ErrConflict)
		}
		return flock.User{}, fmt.Errorf("user %s already exists: %w", usr.ID, flock.ErrConflict)
	}
	if err != nil {
		return flock.User{}, fmt.Errorf("error inserting user: %w", err)
	}

	return row.user(), nil
}

func (r Repo) User(ctx context.Context, id string) (flock.User, error) {
	const q = `SELECT * FROM users WHERE id = ?;`

	var row userRow
	err := r.db.GetContext(ctx, &row, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return flock.User{}, fmt.Errorf("user %s: %w", id, flock.ErrNotFound)
	}
	if err != nil {
		return flock.User{}, fmt.Errorf("error fetching user: %w", err)
	}

	return row.user(), nil
}

func (r Repo) UserByUsername(ctx context.Context, username string) (flock.User, error) {
	const q = `SELECT * FROM users WHERE username = ?;`

	var row userRow
	err := r.db.GetContext(ctx, &row, q, username)
	if errors.Is(err, sql.ErrNoRows) {
		return flock.User{}, fmt.Errorf("username %q: %w", username, flock.ErrNotFound)
	}
	if err != nil {
		return flock.User{}, fmt.Errorf("error fetching user: %w", err)
	}

	return row.user(), nil
}

func (r Repo) UsernameExists(ctx context.Context, username string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE username = ?);`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, username); err != nil {
		return false, fmt.Errorf("error checking username: %w", err)
	}

	return exists, nil
}

func (r Repo) CountUsers(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM users;`

	var count int
	if err := r.db.GetContext(ctx, &count, q); err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}

	return count, nil
}

// AllUsers reads users in batches keyed on seq. No rows are held open between
// batches, so the loop body is free to use the repo. The walk is bounded by the
// newest seq when the range starts; users created during it are not yielded.
func (r Repo) AllUsers(ctx context.Context) iter.Seq2[flock.User, error] {
	return func(yield func(flock.User, error) bool) {
		const maxQ = `SELECT COALESCE(MAX(seq), 0) FROM users;`

		var last int64
		if err := r.db.GetContext(ctx, &last, maxQ); err != nil {
			yield(flock.User{}, fmt.Errorf("error reading newest user: %w", err))
			return
		}

		var after int64
		for {
			query, args, err := sq.Select("*").
				From("users").
				Where(sq.And{sq.Gt{"seq": after}, sq.LtOrEq{"seq": last}}).
				OrderBy("seq").
				Limit(usersBatch).
				ToSql()
			if err != nil {
				yield(flock.User{}, fmt.Errorf("error constructing sql: %w", err))
				return
			}

			var rows []userRow
			if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
				yield(flock.User{}, fmt.Errorf("error listing users: %w", err))
				return
			}

			for _, row := range rows {
				if !yield(row.user(), nil) {
					return
				}
				after = row.Seq
			}
			if len(rows) < usersBatch {
				return
			}
		}
	}
}
