// Flock is a small microblogging service: users post short messages, follow
// each other and read a merged timeline. All state lives in memory.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/oklog/run"
	"github.com/sethvargo/go-envconfig"

	"github.com/jdholdren/flock/internal/api"
	"github.com/jdholdren/flock/internal/flock"
	"github.com/jdholdren/flock/internal/logger"
	"github.com/jdholdren/flock/internal/memstore"
	flocksqlite "github.com/jdholdren/flock/internal/sqlite"
)

type config struct {
	Port            int    `env:"PORT, default=4444"`
	Store           string `env:"STORE, default=memory"`
	LoggerFormat    string `env:"LOGGER_FORMAT, default=text"`
	Debug           bool   `env:"DEBUG, default=false"`
	CorsOrigin      string `env:"CORS_ORIGIN, default=*"`
	CookieHashKey   string `env:"COOKIE_HASH_KEY"`
	CookieBlockKey  string `env:"COOKIE_BLOCK_KEY"`
	UserCacheSize   int    `env:"USER_CACHE_SIZE, default=1024"`
	ProfanityFilter bool   `env:"PROFANITY_FILTER, default=false"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LoggerFormat, level))

	repo, closeRepo, err := openRepo(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("error opening %s store: %s", cfg.Store, err)
	}
	defer closeRepo()

	hashKey := []byte(cfg.CookieHashKey)
	if len(hashKey) == 0 {
		// Sessions won't survive a restart, but neither does the data.
		slog.Warn("COOKIE_HASH_KEY not set, generating one")
		hashKey = securecookie.GenerateRandomKey(32)
	}

	var blockKey []byte
	if cfg.CookieBlockKey != "" {
		blockKey = []byte(cfg.CookieBlockKey)
	}

	srvr, err := api.NewServer(api.ServerConfig{
		Port:            cfg.Port,
		CookieHashKey:   hashKey,
		CookieBlockKey:  blockKey,
		CorsOrigin:      cfg.CorsOrigin,
		UserCacheSize:   cfg.UserCacheSize,
		ProfanityFilter: cfg.ProfanityFilter,
	}, flock.NewService(repo))
	if err != nil {
		log.Fatalf("error creating server: %s", err)
	}

	var g run.Group
	g.Add(func() error {
		slog.Info("starting server", "port", cfg.Port, "store", cfg.Store)
		if err := srvr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srvr.Shutdown(shutdownCtx); err != nil {
			slog.Error("error shutting down server", "err", err)
		}
	})
	g.Add(func() error {
		<-ctx.Done()
		return ctx.Err()
	}, func(error) {
		cancel()
	})

	if err := g.Run(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("shut down")
}

// openRepo picks the storage backend. Both are volatile.
func openRepo(ctx context.Context, store string) (flock.Repository, func(), error) {
	switch store {
	case "memory":
		return memstore.New(), func() {}, nil
	case "sqlite":
		dbx, err := flocksqlite.OpenMemory(ctx)
		if err != nil {
			return nil, nil, err
		}
		return flocksqlite.New(dbx), func() { dbx.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown store %q, want memory or sqlite", store)
}
