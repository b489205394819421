package api

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/jdholdren/flock/api"
	usersv1 "github.com/jdholdren/flock/api/users/v1"
	"github.com/jdholdren/flock/internal/flock"
	"github.com/jdholdren/flock/internal/serverutil"
)

func userPath(id string) string {
	return "/api/users/" + url.PathEscape(id)
}

func apiUser(u flock.User) usersv1.User {
	self := userPath(u.ID)
	return usersv1.User{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		Links: api.Links{
			"self":      self,
			"posts":     self + "/posts",
			"followers": self + "/followers",
			"following": self + "/following",
			"counts":    self + "/counts",
		},
	}
}

func (s Server) postUser(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	body, err := serverutil.DecodeValid[usersv1.CreateUserRequest](r.Body)
	if err != nil {
		return err
	}

	usr, err := s.svc.CreateUser(ctx, body.Username, sanitizeName(body.DisplayName))
	if err != nil {
		return err
	}

	resp := apiUser(usr)
	s.userRespCache.Add(usr.ID, resp)
	w.Header().Set("Location", resp.Links["self"])

	return serverutil.WriteJSON(w, http.StatusCreated, resp)
}

func (s Server) getUsers(w http.ResponseWriter, r *http.Request) error {
	pg, err := s.svc.Users(r.Context(), parsePage(r))
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPage(pg, apiUser))
}

func (s Server) getUser(w http.ResponseWriter, r *http.Request) error {
	userID := mux.Vars(r)["userID"]

	if resp, ok := s.userRespCache.Get(userID); ok {
		return serverutil.WriteJSON(w, http.StatusOK, resp)
	}

	usr, err := s.svc.User(r.Context(), userID)
	if err != nil {
		return err
	}

	resp := apiUser(usr)
	s.userRespCache.Add(usr.ID, resp)

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

func (s Server) getUserByUsername(w http.ResponseWriter, r *http.Request) error {
	usr, err := s.svc.UserByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiUser(usr))
}

func (s Server) getUsernameAvailable(w http.ResponseWriter, r *http.Request) error {
	username := mux.Vars(r)["username"]

	available, err := s.svc.UsernameAvailable(r.Context(), username)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, usersv1.UsernameAvailability{
		Username:  username,
		Available: available,
	})
}

func (s Server) getFollowers(w http.ResponseWriter, r *http.Request) error {
	pg, err := s.svc.Followers(r.Context(), mux.Vars(r)["userID"], parsePage(r))
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPage(pg, apiUser))
}

func (s Server) getFollowing(w http.ResponseWriter, r *http.Request) error {
	pg, err := s.svc.Following(r.Context(), mux.Vars(r)["userID"], parsePage(r))
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPage(pg, apiUser))
}

func (s Server) getFollowCounts(w http.ResponseWriter, r *http.Request) error {
	userID := mux.Vars(r)["userID"]

	followers, following, err := s.svc.FollowCounts(r.Context(), userID)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, usersv1.FollowCounts{
		UserID:    userID,
		Followers: followers,
		Following: following,
		Links: api.Links{
			"user": userPath(userID),
		},
	})
}
