package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/jdholdren/flock/api"
	followsv1 "github.com/jdholdren/flock/api/follows/v1"
	flockerrs "github.com/jdholdren/flock/internal/errors"
	"github.com/jdholdren/flock/internal/flock"
	"github.com/jdholdren/flock/internal/serverutil"
)

func apiFollow(f flock.Follow) followsv1.Follow {
	return followsv1.Follow{
		ID:         f.ID,
		FollowerID: f.FollowerID,
		FollowedID: f.FollowedID,
		CreatedAt:  f.CreatedAt,
		Links: api.Links{
			"self":     "/api/follows/" + url.PathEscape(f.ID),
			"follower": userPath(f.FollowerID),
			"followed": userPath(f.FollowedID),
		},
	}
}

// postFollow makes the viewer follow the user in the body.
func (s Server) postFollow(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	body, err := serverutil.DecodeValid[followsv1.CreateFollowRequest](r.Body)
	if err != nil {
		return err
	}

	f, err := s.svc.CreateFollow(ctx, viewerID(ctx), body.UserID)
	if err != nil {
		return err
	}

	resp := apiFollow(f)
	w.Header().Set("Location", resp.Links["self"])

	return serverutil.WriteJSON(w, http.StatusCreated, resp)
}

func (s Server) getFollow(w http.ResponseWriter, r *http.Request) error {
	f, err := s.svc.Follow(r.Context(), mux.Vars(r)["followID"])
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiFollow(f))
}

// deleteFollow removes a follow edge by id. Only the follower may remove it,
// and removing one that is already gone succeeds.
func (s Server) deleteFollow(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx      = r.Context()
		followID = mux.Vars(r)["followID"]
	)

	f, err := s.svc.Follow(ctx, followID)
	if errors.Is(err, flock.ErrNotFound) {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	if err != nil {
		return err
	}
	if f.FollowerID != viewerID(ctx) {
		return flockerrs.E("only the follower can remove a follow", http.StatusForbidden)
	}

	if err := s.svc.DeleteFollow(ctx, followID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// deleteUserFollow makes the viewer unfollow userID.
func (s Server) deleteUserFollow(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	if err := s.svc.Unfollow(ctx, viewerID(ctx), mux.Vars(r)["userID"]); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
