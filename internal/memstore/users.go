package memstore

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/jdholdren/flock/internal/flock"
)

// UserStore keeps users keyed by id with a uniqueness index on username.
type UserStore struct {
	mu         sync.RWMutex
	users      map[string]flock.User
	byUsername map[string]string // username -> id
	order      []string          // ids in insertion order, append only
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:      make(map[string]flock.User),
		byUsername: make(map[string]string),
	}
}

func (s *UserStore) CreateUser(ctx context.Context, usr flock.User) (flock.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[usr.Username]; ok {
		return flock.User{}, fmt.Errorf("username %q is taken: %w", usr.Username, flock.ErrConflict)
	}
	if _, ok := s.users[usr.ID]; ok {
		return flock.User{}, fmt.Errorf("user %s: %w", usr.ID, flock.ErrConflict)
	}

	s.users[usr.ID] = usr
	s.byUsername[usr.Username] = usr.ID
	s.order = append(s.order, usr.ID)

	return usr, nil
}

func (s *UserStore) User(ctx context.Context, id string) (flock.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, ok := s.users[id]
	if !ok {
		return flock.User{}, fmt.Errorf("user %s: %w", id, flock.ErrNotFound)
	}

	return usr, nil
}

func (s *UserStore) UserByUsername(ctx context.Context, username string) (flock.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return flock.User{}, fmt.Errorf("username %q: %w", username, flock.ErrNotFound)
	}

	return s.users[id], nil
}

func (s *UserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byUsername[username]
	return ok, nil
}

func (s *UserStore) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order), nil
}

// AllUsers walks the users that existed when the range started. The lock is
// only held per lookup, so the loop body may write to the store.
func (s *UserStore) AllUsers(ctx context.Context) iter.Seq2[flock.User, error] {
	return func(yield func(flock.User, error) bool) {
		s.mu.RLock()
		ids := s.order[:len(s.order):len(s.order)]
		s.mu.RUnlock()

		for _, id := range ids {
			s.mu.RLock()
			usr := s.users[id]
			s.mu.RUnlock()

			if !yield(usr, nil) {
				return
			}
		}
	}
}
