package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	usersv1 "github.com/jdholdren/flock/api/users/v1"
	flockerrs "github.com/jdholdren/flock/internal/errors"
	"github.com/jdholdren/flock/internal/flock"
	"github.com/jdholdren/flock/internal/logger"
	"github.com/jdholdren/flock/internal/serverutil"
)

const sessionTokenName = "flock_session"

// Describes what is sealed into a session token.
type sessionState struct {
	UserID string
}

type viewerKey struct{}

// viewerID is the authenticated user. Only set behind requireViewer.
func viewerID(ctx context.Context) string {
	id, _ := ctx.Value(viewerKey{}).(string)
	return id
}

// bearerToken pulls the token out of "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	const prefix = "bearer "

	h := r.Header.Get("Authorization")
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(h[len(prefix):])
}

// requireViewer rejects requests without a valid token for an existing user
// and otherwise puts the user's id on the context.
func (s Server) requireViewer(next serverutil.HandlerFuncE) serverutil.HandlerFuncE {
	return func(w http.ResponseWriter, r *http.Request) error {
		tok := bearerToken(r)
		if tok == "" {
			return flockerrs.E("missing bearer token", http.StatusUnauthorized)
		}

		var sess sessionState
		if err := s.secureCookie.Decode(sessionTokenName, tok, &sess); err != nil {
			slog.DebugContext(r.Context(), "error decoding session token", "err", err)
			return flockerrs.E("invalid session token", http.StatusUnauthorized)
		}

		// Tokens can outlive a volatile store.
		_, err := s.svc.User(r.Context(), sess.UserID)
		if errors.Is(err, flock.ErrNotFound) {
			return flockerrs.E("session user no longer exists", http.StatusUnauthorized)
		}
		if err != nil {
			return err
		}

		ctx := context.WithValue(r.Context(), viewerKey{}, sess.UserID)
		ctx = logger.Ctx(ctx, slog.String("viewer_id", sess.UserID))
		return next(w, r.WithContext(ctx))
	}
}

// postSession mints a token for a username. There are no passwords: knowing
// the username is enough.
func (s Server) postSession(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	body, err := serverutil.DecodeValid[usersv1.CreateSessionRequest](r.Body)
	if err != nil {
		return err
	}

	usr, err := s.svc.UserByUsername(ctx, body.Username)
	if err != nil {
		return err
	}

	tok, err := s.secureCookie.Encode(sessionTokenName, sessionState{UserID: usr.ID})
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusCreated, usersv1.Session{
		Token:  tok,
		UserID: usr.ID,
	})
}
