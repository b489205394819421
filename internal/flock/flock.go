// Package flock holds the domain of the microblogging service: users, their
// posts and the follow graph between them.
//
// Storage lives behind the repository interfaces declared here so that the
// in-memory store and the sqlite store can be swapped without the service
// noticing.
package flock

import (
	"context"
	"errors"
	"iter"
	"time"
)

var (
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("resource already exists")
	ErrValidation = errors.New("validation failed")
)

type (
	// User is an account that can post and follow other accounts.
	User struct {
		ID          string
		Username    string
		DisplayName string
		CreatedAt   time.Time
	}

	// Post is a single short message written by a user.
	Post struct {
		ID        string
		AuthorID  string
		Content   string
		CreatedAt time.Time

		// Seq is assigned by the store on insert and breaks ties between
		// posts created at the same instant.
		Seq int64
	}

	// Follow is a directed edge: FollowerID receives FollowedID's posts.
	Follow struct {
		ID         string
		FollowerID string
		FollowedID string
		CreatedAt  time.Time

		Seq int64
	}
)

type (
	UserRepo interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		User(ctx context.Context, id string) (User, error)
		UserByUsername(ctx context.Context, username string) (User, error)
		UsernameExists(ctx context.Context, username string) (bool, error)
		CountUsers(ctx context.Context) (int, error)
		// AllUsers yields every user in insertion order. Each range over the
		// returned sequence starts from the beginning.
		AllUsers(ctx context.Context) iter.Seq2[User, error]
	}

	PostRepo interface {
		CreatePost(ctx context.Context, post Post) (Post, error)
		Post(ctx context.Context, id string) (Post, error)
		// PostsByAuthor returns the author's posts newest first.
		PostsByAuthor(ctx context.Context, authorID string) ([]Post, error)
		AllPosts(ctx context.Context) iter.Seq2[Post, error]
	}

	FollowRepo interface {
		CreateFollow(ctx context.Context, f Follow) (Follow, error)
		Follow(ctx context.Context, id string) (Follow, error)
		FollowByPair(ctx context.Context, followerID, followedID string) (Follow, error)
		IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
		// Followers returns the edges pointing at userID, in no particular order.
		Followers(ctx context.Context, userID string) ([]Follow, error)
		// Following returns the edges leaving userID, in no particular order.
		Following(ctx context.Context, userID string) ([]Follow, error)
		// DeleteFollow is a no-op when the id is unknown.
		DeleteFollow(ctx context.Context, id string) error
	}

	// Repository is everything the service needs from a storage backend.
	Repository interface {
		UserRepo
		PostRepo
		FollowRepo
	}
)
