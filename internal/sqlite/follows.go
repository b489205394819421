package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdholdren/flock/internal/flock"
)

type followRow struct {
	Seq        int64  `db:"seq"`
	ID         string `db:"id"`
	FollowerID string `db:"follower_id"`
	FollowedID string `db:"followed_id"`
	CreatedAt  int64  `db:"created_at"`
}

func (r followRow) follow() flock.Follow {
	return flock.Follow{
		ID:         r.ID,
		FollowerID: r.FollowerID,
		FollowedID: r.FollowedID,
		CreatedAt:  fromNanos(r.CreatedAt),
		Seq:        r.Seq,
	}
}

// CreateFollow leans on the UNIQUE (follower_id, followed_id) constraint, so a
// duplicate pair fails inside the engine no matter how callers race.
func (r Repo) CreateFollow(ctx context.Context, f flock.Follow) (flock.Follow, error) {
	const q = `INSERT INTO follows (id, follower_id, followed_id, created_at)
	VALUES (:id, :follower_id, :followed_id, :created_at);`

	row := followRow{
		ID:         f.ID,
		FollowerID: f.FollowerID,
		FollowedID: f.FollowedID,
		CreatedAt:  toNanos(f.CreatedAt),
	}
	res, err := r.db.NamedExecContext(ctx, q, row)
	if isUniqueViolation(err) {
		return flock.Follow{}, fmt.Errorf("%s already follows %s: %w", f.FollowerID, f.FollowedID, flock.ErrConflict)
	}
	if err != nil {
		return flock.Follow{}, fmt.Errorf("error inserting follow: %w", err)
	}

	row.Seq, err = res.LastInsertId()
	if err != nil {
		return flock.Follow{}, fmt.Errorf("error reading follow seq: %w", err)
	}

	return row.follow(), nil
}

func (r Repo) Follow(ctx context.Context, id string) (flock.Follow, error) {
	return r.oneFollow(ctx, sq.Eq{"id": id})
}

func (r Repo) FollowByPair(ctx context.Context, followerID, followedID string) (flock.Follow, error) {
	return r.oneFollow(ctx, sq.Eq{"follower_id": followerID, "followed_id": followedID})
}

func (r Repo) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = ? AND followed_id = ?);`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, followerID, followedID); err != nil {
		return false, fmt.Errorf("error checking follow: %w", err)
	}

	return exists, nil
}

func (r Repo) Followers(ctx context.Context, userID string) ([]flock.Follow, error) {
	return r.follows(ctx, sq.Eq{"followed_id": userID})
}

func (r Repo) Following(ctx context.Context, userID string) ([]flock.Follow, error) {
	return r.follows(ctx, sq.Eq{"follower_id": userID})
}

func (r Repo) DeleteFollow(ctx context.Context, id string) error {
	const q = `DELETE FROM follows WHERE id = ?;`

	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("error deleting follow: %w", err)
	}

	return nil
}

func (r Repo) oneFollow(ctx context.Context, where sq.Eq) (flock.Follow, error) {
	query, args, err := sq.Select("*").From("follows").Where(where).ToSql()
	if err != nil {
		return flock.Follow{}, fmt.Errorf("error constructing sql: %w", err)
	}

	var row followRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return flock.Follow{}, fmt.Errorf("follow: %w", flock.ErrNotFound)
	}
	if err != nil {
		return flock.Follow{}, fmt.Errorf("error fetching follow: %w", err)
	}

	return row.follow(), nil
}

func (r Repo) follows(ctx context.Context, where sq.Eq) ([]flock.Follow, error) {
	query, args, err := sq.Select("*").From("follows").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %w", err)
	}

	var rows []followRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching follows: %w", err)
	}

	fs := make([]flock.Follow, 0, len(rows))
	for _, row := range rows {
		fs = append(fs, row.follow())
	}

	return fs, nil
}
