package v1

import (
	"net/http"
	"time"

	"github.com/jdholdren/flock/api"
	flockerrs "github.com/jdholdren/flock/internal/errors"
)

type (
	// CreateFollowRequest names the user to follow. The follower is always
	// the authenticated user.
	CreateFollowRequest struct {
		UserID string `json:"user_id"`
	}

	Follow struct {
		ID         string    `json:"id"`
		FollowerID string    `json:"follower_id"`
		FollowedID string    `json:"followed_id"`
		CreatedAt  time.Time `json:"created_at"`
		Links      api.Links `json:"links"`
	}
)

func (r CreateFollowRequest) Validate() error {
	if r.UserID == "" {
		return flockerrs.E("invalid request", http.StatusBadRequest, flockerrs.Detail{Field: "user_id", Error: "required"})
	}

	return nil
}
