package v1

import (
	"net/http"
	"time"

	"github.com/jdholdren/flock/api"
	flockerrs "github.com/jdholdren/flock/internal/errors"
)

type (
	CreateUserRequest struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	}

	User struct {
		ID          string    `json:"id"`
		Username    string    `json:"username"`
		DisplayName string    `json:"display_name"`
		CreatedAt   time.Time `json:"created_at"`
		Links       api.Links `json:"links"`
	}

	UsernameAvailability struct {
		Username  string `json:"username"`
		Available bool   `json:"available"`
	}

	FollowCounts struct {
		UserID    string    `json:"user_id"`
		Followers int       `json:"followers"`
		Following int       `json:"following"`
		Links     api.Links `json:"links"`
	}

	CreateSessionRequest struct {
		Username string `json:"username"`
	}

	// Session carries the token to send back as "Authorization: Bearer <token>".
	Session struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
)

// Validate only checks presence; the length and alphabet rules live with the
// domain.
func (r CreateUserRequest) Validate() error {
	var errs []flockerrs.Detail
	if r.Username == "" {
		errs = append(errs, flockerrs.Detail{Field: "username", Error: "required"})
	}
	if r.DisplayName == "" {
		errs = append(errs, flockerrs.Detail{Field: "display_name", Error: "required"})
	}
	if len(errs) > 0 {
		return flockerrs.E("invalid request", http.StatusBadRequest, errs)
	}

	return nil
}

func (r CreateSessionRequest) Validate() error {
	if r.Username == "" {
		return flockerrs.E("invalid request", http.StatusBadRequest, flockerrs.Detail{Field: "username", Error: "required"})
	}

	return nil
}
