// Package message serves sending and reading chat messages.
package message

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
	chatservice "github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/service/chat"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/validate"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/pkg/utils"
)

// Relay is the message surface used by the handler.
type Relay interface {
	Send(ctx context.Context, from string, draft chat.Draft) (chat.Message, error)
	ListFor(ctx context.Context, viewer, limit string) ([]chat.Message, error)
}

// Handler serves /messages.
type Handler struct {
	relay Relay
}

// New creates a message handler.
func New(relay Relay) *Handler {
	return &Handler{relay: relay}
}

// RegisterRoutes mounts the message routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.handleSend)
	r.Get("/messages", h.handleList)
}

// handleSend validates the body before the header; both answer 422.
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	record, err := validate.DecodeRecord(r.Body)
	if err != nil {
		utils.RespondFieldErrors(w, http.StatusUnprocessableEntity, err)
		return
	}

	draft, err := validate.ParseMessage(record)
	if err != nil {
		utils.RespondFieldErrors(w, http.StatusUnprocessableEntity, err)
		return
	}

	from := utils.ActingName(r)
	if err := validate.Header(utils.UserHeader, from); err != nil {
		utils.RespondFieldErrors(w, http.StatusUnprocessableEntity, err)
		return
	}

	_, err = h.relay.Send(r.Context(), from, draft)
	switch {
	case err == nil:
		utils.RespondStatus(w, http.StatusCreated)
	case errors.Is(err, chatservice.ErrSenderNotPresent):
		utils.RespondStatus(w, http.StatusForbidden)
	case utils.IsFieldErrors(err):
		utils.RespondFieldErrors(w, http.StatusUnprocessableEntity, err)
	default:
		utils.RespondInternal(w, r, err)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	messages, err := h.relay.ListFor(r.Context(), utils.ActingName(r), r.URL.Query().Get("limit"))
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, messages)
	case errors.Is(err, chatservice.ErrViewerNotPresent):
		utils.RespondStatus(w, http.StatusForbidden)
	case utils.IsFieldErrors(err):
		utils.RespondFieldErrors(w, http.StatusUnprocessableEntity, err)
	default:
		utils.RespondInternal(w, r, err)
	}
}
