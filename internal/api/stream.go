package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jdholdren/flock/internal/flock"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10

	// Posts buffered per stream before new ones are dropped.
	streamBuffer = 32
)

// hub fans newly created posts out to open timeline streams.
type hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	viewerID string
	posts    chan flock.Post
}

func newHub() *hub {
	return &hub{subs: make(map[*subscriber]struct{})}
}

func (h *hub) subscribe(viewerID string) *subscriber {
	sub := &subscriber{
		viewerID: viewerID,
		posts:    make(chan flock.Post, streamBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}

	return sub
}

func (h *hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
}

// publish hands the post to every stream whose timeline it belongs on: the
// author's own, and those of users following the author right now. A stream
// that is not keeping up misses the post rather than stalling the writer.
func (h *hub) publish(ctx context.Context, post flock.Post, isFollowing func(ctx context.Context, followerID, followedID string) (bool, error)) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if sub.viewerID != post.AuthorID {
			ok, err := isFollowing(ctx, sub.viewerID, post.AuthorID)
			if err != nil {
				slog.WarnContext(ctx, "error checking stream audience", "viewer_id", sub.viewerID, "err", err)
				continue
			}
			if !ok {
				continue
			}
		}

		select {
		case sub.posts <- post:
		default:
			slog.WarnContext(ctx, "dropping post for slow stream", "viewer_id", sub.viewerID, "post_id", post.ID)
		}
	}
}

// getTimelineStream upgrades to a websocket and pushes every new post that
// lands on the viewer's timeline. Past posts are read through /api/timeline.
func (s Server) getTimelineStream(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	// Subscribe before the handshake completes so nothing published after
	// the client sees the upgrade is missed.
	sub := s.hub.subscribe(viewerID(ctx))
	defer s.hub.unsubscribe(sub)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		slog.DebugContext(ctx, "error upgrading timeline stream", "err", err)
		return nil
	}
	defer conn.Close()
	slog.InfoContext(ctx, "timeline stream opened")

	// Clients never send anything meaningful; reading keeps pongs and the
	// close handshake flowing and tells us when they leave.
	gone := make(chan struct{})
	go func() {
		defer close(gone)

		conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			slog.InfoContext(ctx, "timeline stream closed")
			return nil
		case post := <-sub.posts:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(apiPost(post)); err != nil {
				slog.DebugContext(ctx, "error writing to timeline stream", "err", err)
				return nil
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
