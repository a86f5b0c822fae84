// internal/app/features/feed/handler.go
package feed

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/quicklist/internal/app/engine/viewsession"
	"github.com/dalemusser/quicklist/internal/app/system/viewdata"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Handler streams a user's view session updates over a websocket.
type Handler struct {
	Views    viewdata.Provider
	Log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(views viewdata.Provider, logger *zap.Logger) *Handler {
	return &Handler{
		Views: views,
		Log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     sameOrigin,
		},
	}
}

// sameOrigin accepts requests without an Origin header and those whose
// Origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ServeFeed handles GET /feed. The first messages are the current lists
// projection followed by every update the session broadcasts until the
// client disconnects or the session ends.
func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	sess, ok := viewdata.Session(w, r, h.Views, h.Log)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.Log.Debug("feed: upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := sess.Listen(ctx)
	if err != nil {
		h.Log.Debug("feed: listen", zap.Error(err))
		return
	}

	h.Log.Info("feed opened", zap.String("user_id", sess.UserID()))
	defer h.Log.Info("feed closed", zap.String("user_id", sess.UserID()))

	go readPump(conn, cancel)

	if v, err := sess.Lists(ctx); err == nil {
		if err := writeUpdate(conn, viewsession.Update{Kind: viewsession.UpdateLists, Lists: &v}); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session ended"))
				return
			}
			if err := writeUpdate(conn, u); err != nil {
				h.Log.Debug("feed: write", zap.Error(err))
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeUpdate(conn *websocket.Conn, u viewsession.Update) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(u)
}

// readPump discards client messages and cancels the feed once the
// connection drops or stops answering pings.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
