package api

import (
	"net/http"
	"net/url"

	goaway "github.com/TwiN/go-away"
	"github.com/gorilla/mux"

	"github.com/jdholdren/flock/api"
	postsv1 "github.com/jdholdren/flock/api/posts/v1"
	flockerrs "github.com/jdholdren/flock/internal/errors"
	"github.com/jdholdren/flock/internal/flock"
	"github.com/jdholdren/flock/internal/serverutil"
)

func apiPost(p flock.Post) postsv1.Post {
	return postsv1.Post{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		Links: api.Links{
			"self":   "/api/posts/" + url.PathEscape(p.ID),
			"author": userPath(p.AuthorID),
		},
	}
}

// postPost publishes a post as the viewer.
func (s Server) postPost(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	body, err := serverutil.DecodeValid[postsv1.CreatePostRequest](r.Body)
	if err != nil {
		return err
	}

	content := sanitize(body.Content)
	if s.profanityFilter && goaway.IsProfane(content) {
		return flockerrs.E("profanity detected in post", http.StatusUnprocessableEntity)
	}

	post, err := s.svc.CreatePost(ctx, viewerID(ctx), content)
	if err != nil {
		return err
	}

	s.hub.publish(ctx, post, s.svc.IsFollowing)

	resp := apiPost(post)
	w.Header().Set("Location", resp.Links["self"])

	return serverutil.WriteJSON(w, http.StatusCreated, resp)
}

func (s Server) getPost(w http.ResponseWriter, r *http.Request) error {
	post, err := s.svc.Post(r.Context(), mux.Vars(r)["postID"])
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPost(post))
}

func (s Server) getUserPosts(w http.ResponseWriter, r *http.Request) error {
	pg, err := s.svc.PostsByAuthor(r.Context(), mux.Vars(r)["userID"], parsePage(r))
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPage(pg, apiPost))
}

// getTimeline is the viewer's home timeline: their own posts and those of
// everyone they follow, newest first.
func (s Server) getTimeline(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	pg, err := s.svc.Timeline(ctx, viewerID(ctx), parsePage(r))
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPage(pg, apiPost))
}
