// Package memstore is the volatile, in-process backend for flock.
//
// Each store owns its records in a single primary map and keeps secondary
// indices that only hold ids. Every store guards its maps with its own
// RWMutex: writes update the primary map and all indices under one write
// lock, so readers never see a half-applied mutation.
package memstore

import (
	"github.com/jdholdren/flock/internal/flock"
)

var _ flock.Repository = (*Store)(nil)

// Store bundles the three entity stores into a [flock.Repository].
type Store struct {
	*UserStore
	*PostStore
	*FollowStore
}

func New() *Store {
	return &Store{
		UserStore:   NewUserStore(),
		PostStore:   NewPostStore(),
		FollowStore: NewFollowStore(),
	}
}
