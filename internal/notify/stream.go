package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	ws "github.com/coder/websocket"

	"github.com/hazelwick/spotless/internal/auth"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// HandleStream upgrades the request to a WebSocket and relays the
// authenticated user's hub events until the connection ends. The hub
// subscription is released on every exit path.
func HandleStream(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Error("websocket accept", "error", err)
			return
		}

		send := make(chan Event, sendBufferSize)
		unsubscribe := hub.Subscribe(ac.UserID, func(ev Event) {
			select {
			case send <- ev:
			default:
				// Client buffer full — drop; the pull API reconciles
			}
		})
		defer unsubscribe()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go readPump(ctx, conn, cancel)
		writePump(ctx, conn, send)
	}
}

// readPump discards client messages and cancels the stream when the
// connection drops.
func readPump(ctx context.Context, conn *ws.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func writePump(ctx context.Context, conn *ws.Conn, send <-chan Event) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-send:
			data, err := json.Marshal(ev)
			if err != nil {
				return
			}
			if err := conn.Write(ctx, ws.MessageText, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
