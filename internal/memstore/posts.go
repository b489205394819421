package memstore

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/jdholdren/flock/internal/flock"
)

// PostStore keeps posts keyed by id with a per-author index.
type PostStore struct {
	mu    sync.RWMutex
	seq   int64
	posts map[string]flock.Post
	// byAuthor lists post ids oldest first, ordered by (CreatedAt, Seq).
	// Readers walk it backwards to get newest first.
	byAuthor map[string][]string
}

func NewPostStore() *PostStore {
	return &PostStore{
		posts:    make(map[string]flock.Post),
		byAuthor: make(map[string][]string),
	}
}

// CreatePost assigns the post its sequence number and indexes it under its
// author. The author is not checked here; the store has no view of users.
func (s *PostStore) CreatePost(ctx context.Context, post flock.Post) (flock.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[post.ID]; ok {
		return flock.Post{}, fmt.Errorf("post %s: %w", post.ID, flock.ErrConflict)
	}

	s.seq++
	post.Seq = s.seq
	s.posts[post.ID] = post

	// Clock stamps usually arrive in order, so this almost always appends.
	// Walking back keeps the index sorted if a writer raced another one
	// between stamping and inserting.
	ids := s.byAuthor[post.AuthorID]
	i := len(ids)
	for i > 0 && post.CreatedAt.Before(s.posts[ids[i-1]].CreatedAt) {
		i--
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = post.ID
	s.byAuthor[post.AuthorID] = ids

	return post, nil
}

func (s *PostStore) Post(ctx context.Context, id string) (flock.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return flock.Post{}, fmt.Errorf("post %s: %w", id, flock.ErrNotFound)
	}

	return post, nil
}

func (s *PostStore) PostsByAuthor(ctx context.Context, authorID string) ([]flock.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byAuthor[authorID]
	posts := make([]flock.Post, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		posts = append(posts, s.posts[ids[i]])
	}

	return posts, nil
}

// AllPosts yields posts in no particular order.
func (s *PostStore) AllPosts(ctx context.Context) iter.Seq2[flock.Post, error] {
	return func(yield func(flock.Post, error) bool) {
		s.mu.RLock()
		posts := make([]flock.Post, 0, len(s.posts))
		for _, p := range s.posts {
			posts = append(posts, p)
		}
		s.mu.RUnlock()

		for _, p := range posts {
			if !yield(p, nil) {
				return
			}
		}
	}
}
