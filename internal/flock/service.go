package flock

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// Service is the surface the transport layer talks to. It checks the rules
// that span more than one store (authors exist, both ends of a follow exist)
// and leaves the single-store invariants to the repositories.
type Service struct {
	repo Repository
	now  func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock used to stamp new entities.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) CreateUser(ctx context.Context, username, displayName string) (User, error) {
	usr, err := NewUser(username, displayName, s.now())
	if err != nil {
		return User{}, err
	}

	usr, err = s.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, fmt.Errorf("error creating user: %w", err)
	}
	slog.InfoContext(ctx, "created user", "user_id", usr.ID, "username", usr.Username)

	return usr, nil
}

func (s *Service) User(ctx context.Context, id string) (User, error) {
	return s.repo.User(ctx, id)
}

func (s *Service) UserByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.UserByUsername(ctx, username)
}

// UsernameAvailable reports whether a user could register the username.
// Malformed usernames are never available.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	if err := ValidateUsername(username); err != nil {
		return false, nil
	}
	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return false, err
	}

	return !exists, nil
}

// Users pages through every user in the order they signed up. The walk stops
// as soon as the page is full.
func (s *Service) Users(ctx context.Context, p Page) (Paginated[User], error) {
	total, err := s.repo.CountUsers(ctx)
	if err != nil {
		return Paginated[User]{}, fmt.Errorf("error counting users: %w", err)
	}

	var (
		i          int
		start, end = p.Window(total)
		items      = make([]User, 0, end-start)
	)
	for usr, err := range s.repo.AllUsers(ctx) {
		if err != nil {
			return Paginated[User]{}, fmt.Errorf("error listing users: %w", err)
		}
		if i >= end {
			break
		}
		if i >= start {
			items = append(items, usr)
		}
		i++
	}

	return envelope(items, total, p), nil
}

func (s *Service) CreatePost(ctx context.Context, authorID, content string) (Post, error) {
	if _, err := s.repo.User(ctx, authorID); err != nil {
		return Post{}, fmt.Errorf("error fetching author: %w", err)
	}

	post, err := NewPost(authorID, content, s.now())
	if err != nil {
		return Post{}, err
	}

	post, err = s.repo.CreatePost(ctx, post)
	if err != nil {
		return Post{}, fmt.Errorf("error creating post: %w", err)
	}
	slog.InfoContext(ctx, "created post", "post_id", post.ID, "author_id", authorID)

	return post, nil
}

func (s *Service) Post(ctx context.Context, id string) (Post, error) {
	return s.repo.Post(ctx, id)
}

// PostsByAuthor pages through a single user's posts, newest first.
func (s *Service) PostsByAuthor(ctx context.Context, authorID string, p Page) (Paginated[Post], error) {
	if _, err := s.repo.User(ctx, authorID); err != nil {
		return Paginated[Post]{}, err
	}

	posts, err := s.repo.PostsByAuthor(ctx, authorID)
	if err != nil {
		return Paginated[Post]{}, fmt.Errorf("error fetching posts: %w", err)
	}

	return Paginate(posts, p), nil
}

// Timeline is the user's own posts together with the posts of everyone they
// follow, newest first.
func (s *Service) Timeline(ctx context.Context, userID string, p Page) (Paginated[Post], error) {
	if _, err := s.repo.User(ctx, userID); err != nil {
		return Paginated[Post]{}, err
	}

	following, err := s.repo.Following(ctx, userID)
	if err != nil {
		return Paginated[Post]{}, fmt.Errorf("error fetching following: %w", err)
	}

	sources := make([]string, 0, len(following)+1)
	sources = append(sources, userID)
	for _, f := range following {
		sources = append(sources, f.FollowedID)
	}

	lists := make([][]Post, 0, len(sources))
	for _, authorID := range sources {
		posts, err := s.repo.PostsByAuthor(ctx, authorID)
		if err != nil {
			return Paginated[Post]{}, fmt.Errorf("error fetching posts for %s: %w", authorID, err)
		}
		lists = append(lists, posts)
	}

	return Paginate(mergeTimeline(lists), p), nil
}

func (s *Service) CreateFollow(ctx context.Context, followerID, followedID string) (Follow, error) {
	f, err := NewFollow(followerID, followedID, s.now())
	if err != nil {
		return Follow{}, err
	}
	if _, err := s.repo.User(ctx, followerID); err != nil {
		return Follow{}, fmt.Errorf("error fetching follower: %w", err)
	}
	if _, err := s.repo.User(ctx, followedID); err != nil {
		return Follow{}, fmt.Errorf("error fetching user to follow: %w", err)
	}

	// The store re-checks the pair under its own lock, so a racing duplicate
	// still ends up as ErrConflict.
	f, err = s.repo.CreateFollow(ctx, f)
	if err != nil {
		return Follow{}, fmt.Errorf("error creating follow: %w", err)
	}
	slog.InfoContext(ctx, "created follow", "follow_id", f.ID, "follower_id", followerID, "followed_id", followedID)

	return f, nil
}

func (s *Service) Follow(ctx context.Context, id string) (Follow, error) {
	return s.repo.Follow(ctx, id)
}

// DeleteFollow removes the edge. Deleting an edge that does not exist is not
// an error.
func (s *Service) DeleteFollow(ctx context.Context, id string) error {
	if err := s.repo.DeleteFollow(ctx, id); err != nil {
		return fmt.Errorf("error deleting follow: %w", err)
	}
	slog.InfoContext(ctx, "deleted follow", "follow_id", id)

	return nil
}

// Unfollow removes the edge between two existing users, and fails with
// ErrNotFound when there is no such edge.
func (s *Service) Unfollow(ctx context.Context, followerID, followedID string) error {
	if _, err := s.repo.User(ctx, followerID); err != nil {
		return err
	}
	if _, err := s.repo.User(ctx, followedID); err != nil {
		return err
	}

	f, err := s.repo.FollowByPair(ctx, followerID, followedID)
	if err != nil {
		return fmt.Errorf("error fetching follow: %w", err)
	}

	return s.DeleteFollow(ctx, f.ID)
}

func (s *Service) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	return s.repo.IsFollowing(ctx, followerID, followedID)
}

// Followers pages through the users following userID, most recent follow first.
func (s *Service) Followers(ctx context.Context, userID string, p Page) (Paginated[User], error) {
	return s.followPage(ctx, userID, p, s.repo.Followers, func(f Follow) string { return f.FollowerID })
}

// Following pages through the users userID follows, most recent follow first.
func (s *Service) Following(ctx context.Context, userID string, p Page) (Paginated[User], error) {
	return s.followPage(ctx, userID, p, s.repo.Following, func(f Follow) string { return f.FollowedID })
}

func (s *Service) followPage(
	ctx context.Context,
	userID string,
	p Page,
	edges func(context.Context, string) ([]Follow, error),
	other func(Follow) string,
) (Paginated[User], error) {
	if _, err := s.repo.User(ctx, userID); err != nil {
		return Paginated[User]{}, err
	}

	fs, err := edges(ctx, userID)
	if err != nil {
		return Paginated[User]{}, fmt.Errorf("error fetching follows: %w", err)
	}
	slices.SortFunc(fs, func(a, b Follow) int {
		return cmp.Compare(b.Seq, a.Seq)
	})

	return mapPage(Paginate(fs, p), func(f Follow) (User, error) {
		return s.repo.User(ctx, other(f))
	})
}

// FollowCounts returns how many users follow userID and how many it follows.
func (s *Service) FollowCounts(ctx context.Context, userID string) (followers, following int, err error) {
	if _, err := s.repo.User(ctx, userID); err != nil {
		return 0, 0, err
	}

	in, err := s.repo.Followers(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	out, err := s.repo.Following(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	return len(in), len(out), nil
}
