package v1

import (
	"net/http"
	"time"

	"github.com/jdholdren/flock/api"
	flockerrs "github.com/jdholdren/flock/internal/errors"
)

type (
	CreatePostRequest struct {
		Content string `json:"content"`
	}

	Post struct {
		ID        string    `json:"id"`
		AuthorID  string    `json:"author_id"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
		Links     api.Links `json:"links"`
	}
)

func (r CreatePostRequest) Validate() error {
	if r.Content == "" {
		return flockerrs.E("invalid request", http.StatusBadRequest, flockerrs.Detail{Field: "content", Error: "required"})
	}

	return nil
}
