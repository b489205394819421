package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/jdholdren/flock/internal/flock"
)

type set map[string]struct{}

// FollowStore keeps follow edges keyed by id, indexed by pair and by both
// endpoints.
type FollowStore struct {
	mu          sync.RWMutex
	seq         int64
	follows     map[string]flock.Follow
	byPair      map[string]string // pairKey -> follow id
	followersOf map[string]set    // followed id -> follow ids
	followingOf map[string]set    // follower id -> follow ids
}

func NewFollowStore() *FollowStore {
	return &FollowStore{
		follows:     make(map[string]flock.Follow),
		byPair:      make(map[string]string),
		followersOf: make(map[string]set),
		followingOf: make(map[string]set),
	}
}

func pairKey(followerID, followedID string) string {
	return followerID + ":" + followedID
}

// CreateFollow checks the pair and writes the edge under one lock, so of two
// concurrent identical follows exactly one succeeds.
func (s *FollowStore) CreateFollow(ctx context.Context, f flock.Follow) (flock.Follow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(f.FollowerID, f.FollowedID)
	if _, ok := s.byPair[key]; ok {
		return flock.Follow{}, fmt.Errorf("%s already follows %s: %w", f.FollowerID, f.FollowedID, flock.ErrConflict)
	}
	if _, ok := s.follows[f.ID]; ok {
		return flock.Follow{}, fmt.Errorf("follow %s: %w", f.ID, flock.ErrConflict)
	}

	s.seq++
	f.Seq = s.seq
	s.follows[f.ID] = f
	s.byPair[key] = f.ID
	add(s.followersOf, f.FollowedID, f.ID)
	add(s.followingOf, f.FollowerID, f.ID)

	return f, nil
}

func (s *FollowStore) Follow(ctx context.Context, id string) (flock.Follow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.follows[id]
	if !ok {
		return flock.Follow{}, fmt.Errorf("follow %s: %w", id, flock.ErrNotFound)
	}

	return f, nil
}

func (s *FollowStore) FollowByPair(ctx context.Context, followerID, followedID string) (flock.Follow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPair[pairKey(followerID, followedID)]
	if !ok {
		return flock.Follow{}, fmt.Errorf("%s does not follow %s: %w", followerID, followedID, flock.ErrNotFound)
	}

	return s.follows[id], nil
}

func (s *FollowStore) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byPair[pairKey(followerID, followedID)]
	return ok, nil
}

func (s *FollowStore) Followers(ctx context.Context, userID string) ([]flock.Follow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(s.followersOf[userID]), nil
}

func (s *FollowStore) Following(ctx context.Context, userID string) ([]flock.Follow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(s.followingOf[userID]), nil
}

// DeleteFollow removes the edge from every index. Unknown ids are ignored.
func (s *FollowStore) DeleteFollow(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.follows[id]
	if !ok {
		return nil
	}

	delete(s.follows, id)
	delete(s.byPair, pairKey(f.FollowerID, f.FollowedID))
	remove(s.followersOf, f.FollowedID, id)
	remove(s.followingOf, f.FollowerID, id)

	return nil
}

// collect must be called with the lock held.
func (s *FollowStore) collect(ids set) []flock.Follow {
	fs := make([]flock.Follow, 0, len(ids))
	for id := range ids {
		fs = append(fs, s.follows[id])
	}

	return fs
}

func add(idx map[string]set, key, id string) {
	ids, ok := idx[key]
	if !ok {
		ids = make(set)
		idx[key] = ids
	}
	ids[id] = struct{}{}
}

func remove(idx map[string]set, key, id string) {
	ids := idx[key]
	delete(ids, id)
	if len(ids) == 0 {
		delete(idx, key)
	}
}
