package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"

	usersv1 "github.com/jdholdren/flock/api/users/v1"
	"github.com/jdholdren/flock/internal/flock"
	"github.com/jdholdren/flock/internal/serverutil"
)

type (
	// Server exposes the flock service over JSON/HTTP.
	Server struct {
		*http.Server

		svc     *flock.Service
		started time.Time

		// Users never change once created, so their responses can be kept
		// until evicted.
		userRespCache *lru.Cache[string, usersv1.User]

		secureCookie    *securecookie.SecureCookie
		profanityFilter bool

		hub      *hub
		upgrader websocket.Upgrader
	}

	ServerConfig struct {
		Port            int
		CookieHashKey   []byte
		CookieBlockKey  []byte
		CorsOrigin      string
		UserCacheSize   int
		ProfanityFilter bool
	}
)

func NewServer(config ServerConfig, svc *flock.Service) (*Server, error) {
	cache, err := lru.New[string, usersv1.User](config.UserCacheSize)
	if err != nil {
		return nil, fmt.Errorf("error creating user cache: %w", err)
	}

	// An empty block key would make securecookie try AES with a 0-byte key.
	blockKey := config.CookieBlockKey
	if len(blockKey) == 0 {
		blockKey = nil
	}

	r := serverutil.ErrRouter{Router: mux.NewRouter()}
	srvr := Server{
		svc:             svc,
		started:         time.Now(),
		userRespCache:   cache,
		secureCookie:    securecookie.New(config.CookieHashKey, blockKey),
		profanityFilter: config.ProfanityFilter,
		hub:             newHub(),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 5 * time.Second,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || config.CorsOrigin == "*" || origin == config.CorsOrigin
			},
		},
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsOrigin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type", "authorization"}),
				handlers.ExposedHeaders([]string{serverutil.RequestIDHeader}),
			)(r),
		},
	}

	r.Use(serverutil.RequestIDMiddleware, serverutil.AccessLogMiddleware) // Log everything
	r.HandleFuncE("/healthz", srvr.getHealth).Methods(http.MethodGet)

	// Users
	r.HandleFuncE("/api/users", srvr.postUser).Methods(http.MethodPost)
	r.HandleFuncE("/api/users", srvr.getUsers).Methods(http.MethodGet)
	r.HandleFuncE("/api/users/{userID}", srvr.getUser).Methods(http.MethodGet)
	r.HandleFuncE("/api/users/{userID}/posts", srvr.getUserPosts).Methods(http.MethodGet)
	r.HandleFuncE("/api/users/{userID}/followers", srvr.getFollowers).Methods(http.MethodGet)
	r.HandleFuncE("/api/users/{userID}/following", srvr.getFollowing).Methods(http.MethodGet)
	r.HandleFuncE("/api/users/{userID}/counts", srvr.getFollowCounts).Methods(http.MethodGet)
	r.HandleFuncE("/api/users/{userID}/follow", srvr.requireViewer(srvr.deleteUserFollow)).Methods(http.MethodDelete)
	r.HandleFuncE("/api/usernames/{username}", srvr.getUserByUsername).Methods(http.MethodGet)
	r.HandleFuncE("/api/usernames/{username}/available", srvr.getUsernameAvailable).Methods(http.MethodGet)

	// Sessions
	r.HandleFuncE("/api/sessions", srvr.postSession).Methods(http.MethodPost)

	// Posts and the timeline
	r.HandleFuncE("/api/posts", srvr.requireViewer(srvr.postPost)).Methods(http.MethodPost)
	r.HandleFuncE("/api/posts/{postID}", srvr.getPost).Methods(http.MethodGet)
	r.HandleFuncE("/api/timeline", srvr.requireViewer(srvr.getTimeline)).Methods(http.MethodGet)
	r.HandleFuncE("/api/timeline/stream", srvr.requireViewer(srvr.getTimelineStream)).Methods(http.MethodGet)

	// The follow graph
	r.HandleFuncE("/api/follows", srvr.requireViewer(srvr.postFollow)).Methods(http.MethodPost)
	r.HandleFuncE("/api/follows/{followID}", srvr.getFollow).Methods(http.MethodGet)
	r.HandleFuncE("/api/follows/{followID}", srvr.requireViewer(srvr.deleteFollow)).Methods(http.MethodDelete)

	slog.Debug("configured flock server", "port", config.Port)

	return &srvr, nil
}

type healthResp struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime_seconds"`
}

func (s Server) getHealth(w http.ResponseWriter, r *http.Request) error {
	return serverutil.WriteJSON(w, http.StatusOK, healthResp{
		Status: "ok",
		Uptime: time.Since(s.started).Seconds(),
	})
}
