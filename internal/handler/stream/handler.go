// Package stream pushes newly visible messages to connected participants over
// Server-Sent Events or WebSocket.
package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/events"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
	chatservice "github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/service/chat"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/service/presence"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/pkg/utils"
)

const defaultHeartbeat = 25 * time.Second

// Subscriber hands out live message subscriptions.
type Subscriber interface {
	Subscribe(buffer int) *events.Subscription
}

// Presence gates who may open a stream.
type Presence interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// Handler serves /messages/stream and /messages/ws.
type Handler struct {
	hub       Subscriber
	presence  Presence
	buffer    int
	heartbeat time.Duration
	upgrader  websocket.Upgrader
}

// New creates a stream handler. buffer is the per-connection backlog before
// messages are dropped for a slow client.
func New(hub Subscriber, presence Presence, buffer int) *Handler {
	if buffer < 1 {
		buffer = 1
	}
	return &Handler{
		hub:       hub,
		presence:  presence,
		buffer:    buffer,
		heartbeat: defaultHeartbeat,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the stream routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/messages/stream", h.handleSSE)
	r.Get("/messages/ws", h.handleWebSocket)
}

// authorize answers 403 unless viewer is a current participant.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, viewer string) bool {
	ok, err := h.presence.Exists(r.Context(), viewer)
	if err != nil {
		utils.RespondInternal(w, r, err)
		return false
	}
	if !ok {
		utils.RespondStatus(w, http.StatusForbidden)
		return false
	}
	return true
}

// departed reports whether m announces viewer's own eviction, after which the
// stream ends.
func departed(viewer string, m chat.Message) bool {
	return m.Kind == chat.KindStatus && m.From == viewer && m.Text == presence.LeaveText(viewer)
}

func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	viewer := utils.ViewerName(r)
	if !h.authorize(w, r, viewer) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := h.hub.Subscribe(h.buffer)
	defer sub.Close()

	logger := zerolog.Ctx(r.Context()).With().Str("viewer", viewer).Str("subscription", sub.ID).Logger()
	logger.Debug().Msg("sse stream opened")
	defer logger.Debug().Msg("sse stream closed")

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := utils.SendSSEEvent(w, flusher, "ready", "", map[string]string{"user": viewer}); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		case m, ok := <-sub.C:
			if !ok {
				return
			}
			if !chatservice.Visible(viewer, m) {
				continue
			}
			if err := utils.SendSSEEvent(w, flusher, "message", m.ID, m); err != nil {
				logger.Debug().Err(err).Msg("sse write failed")
				return
			}
			if departed(viewer, m) {
				return
			}
		}
	}
}
