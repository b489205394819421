package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/jdholdren/flock/internal/flock"
)

type postRow struct {
	Seq       int64  `db:"seq"`
	ID        string `db:"id"`
	AuthorID  string `db:"author_id"`
	Content   string `db:"content"`
	CreatedAt int64  `db:"created_at"`
}

func (r postRow) post() flock.Post {
	return flock.Post{
		ID:        r.ID,
		AuthorID:  r.AuthorID,
		Content:   r.Content,
		CreatedAt: fromNanos(r.CreatedAt),
		Seq:       r.Seq,
	}
}

// CreatePost takes its Seq from the autoincrement key.
func (r Repo) CreatePost(ctx context.Context, post flock.Post) (flock.Post, error) {
	const q = `INSERT INTO posts (id, author_id, content, created_at)
	VALUES (:id, :author_id, :content, :created_at);`

	row := postRow{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		CreatedAt: toNanos(post.CreatedAt),
	}
	res, err := r.db.NamedExecContext(ctx, q, row)
	if isUniqueViolation(err) {
		return flock.Post{}, fmt.Errorf("post %s: %w", post.ID, flock.ErrConflict)
	}
	if err != nil {
		return flock.Post{}, fmt.Errorf("error inserting post: %w", err)
	}

	row.Seq, err = res.LastInsertId()
	if err != nil {
		return flock.Post{}, fmt.Errorf("error reading post seq: %w", err)
	}

	return row.post(), nil
}

func (r Repo) Post(ctx context.Context, id string) (flock.Post, error) {
	const q = `SELECT * FROM posts WHERE id = ?;`

	var row postRow
	err := r.db.GetContext(ctx, &row, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return flock.Post{}, fmt.Errorf("post %s: %w", id, flock.ErrNotFound)
	}
	if err != nil {
		return flock.Post{}, fmt.Errorf("error fetching post: %w", err)
	}

	return row.post(), nil
}

func (r Repo) PostsByAuthor(ctx context.Context, authorID string) ([]flock.Post, error) {
	const q = `SELECT * FROM posts WHERE author_id = ? ORDER BY created_at DESC, seq DESC;`

	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, q, authorID); err != nil {
		return nil, fmt.Errorf("error fetching posts: %w", err)
	}

	posts := make([]flock.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.post())
	}

	return posts, nil
}

// AllPosts selects everything up front; posts are only listed in tests and
// admin paths.
func (r Repo) AllPosts(ctx context.Context) iter.Seq2[flock.Post, error] {
	return func(yield func(flock.Post, error) bool) {
		const q = `SELECT * FROM posts;`

		var rows []postRow
		if err := r.db.SelectContext(ctx, &rows, q); err != nil {
			yield(flock.Post{}, fmt.Errorf("error listing posts: %w", err))
			return
		}

		for _, row := range rows {
			if !yield(row.post(), nil) {
				return
			}
		}
	}
}
