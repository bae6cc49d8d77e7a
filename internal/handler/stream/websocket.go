package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	chatservice "github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/service/chat"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/pkg/utils"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

// handleWebSocket streams visible messages as JSON text frames. The feed is
// one way; client frames are read only to track pongs and closes.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	viewer := utils.ViewerName(r)
	if !h.authorize(w, r, viewer) {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(h.buffer)
	defer sub.Close()

	logger := zerolog.Ctx(r.Context()).With().Str("viewer", viewer).Str("subscription", sub.ID).Logger()
	logger.Debug().Msg("websocket opened")
	defer logger.Debug().Msg("websocket closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go readPump(conn, cancel, logger)

	ping := time.NewTicker(h.heartbeat)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case m, ok := <-sub.C:
			if !ok {
				closeNormally(conn, "server shutting down")
				return
			}
			if !chatservice.Visible(viewer, m) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
			if departed(viewer, m) {
				closeNormally(conn, "participant left")
				return
			}
		}
	}
}

func readPump(conn *websocket.Conn, cancel context.CancelFunc, logger zerolog.Logger) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
	}
}

func closeNormally(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
