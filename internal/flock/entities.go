package flock

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	userNamespace   = "-usr"
	postNamespace   = "-pst"
	followNamespace = "-flw"
)

const (
	MinUsernameLen    = 3
	MaxUsernameLen    = 20
	MinDisplayNameLen = 3
	MaxDisplayNameLen = 50
	MaxPostLen        = 280
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// NewUser validates the fields and stamps a fresh id.
func NewUser(username, displayName string, now time.Time) (User, error) {
	if err := ValidateUsername(username); err != nil {
		return User{}, err
	}

	displayName = strings.TrimSpace(displayName)
	switch n := utf8.RuneCountInString(displayName); {
	case n == 0:
		return User{}, fmt.Errorf("%w: display name cannot be empty", ErrValidation)
	case n < MinDisplayNameLen:
		return User{}, fmt.Errorf("%w: display name must be at least %d characters long", ErrValidation, MinDisplayNameLen)
	case n > MaxDisplayNameLen:
		return User{}, fmt.Errorf("%w: display name cannot exceed %d characters", ErrValidation, MaxDisplayNameLen)
	}

	return User{
		ID:          uuid.NewString() + userNamespace,
		Username:    username,
		DisplayName: displayName,
		CreatedAt:   now,
	}, nil
}

// ValidateUsername checks length and the allowed alphabet.
func ValidateUsername(username string) error {
	switch n := len(username); {
	case n == 0:
		return fmt.Errorf("%w: username cannot be empty", ErrValidation)
	case n < MinUsernameLen:
		return fmt.Errorf("%w: username must be at least %d characters long", ErrValidation, MinUsernameLen)
	case n > MaxUsernameLen:
		return fmt.Errorf("%w: username cannot exceed %d characters", ErrValidation, MaxUsernameLen)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username can only contain letters, numbers, and underscores", ErrValidation)
	}

	return nil
}

// NewPost trims the content before checking it. The trimmed content is what
// gets stored.
func NewPost(authorID, content string, now time.Time) (Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Post{}, fmt.Errorf("%w: post content cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(content) > MaxPostLen {
		return Post{}, fmt.Errorf("%w: post content cannot exceed %d characters", ErrValidation, MaxPostLen)
	}

	return Post{
		ID:        uuid.NewString() + postNamespace,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: now,
	}, nil
}

func NewFollow(followerID, followedID string, now time.Time) (Follow, error) {
	if followerID == "" || followedID == "" {
		return Follow{}, fmt.Errorf("%w: both users are required to follow", ErrValidation)
	}
	if followerID == followedID {
		return Follow{}, fmt.Errorf("%w: users cannot follow themselves", ErrValidation)
	}

	return Follow{
		ID:         uuid.NewString() + followNamespace,
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  now,
	}, nil
}
