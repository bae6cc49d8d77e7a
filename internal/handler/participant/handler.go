// Package participant serves joining, listing and liveness refresh.
package participant

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/service/presence"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/validate"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/pkg/utils"
)

// Registry is the presence surface used by the handler.
type Registry interface {
	Join(ctx context.Context, name string) error
	List(ctx context.Context) ([]chat.Participant, error)
	Refresh(ctx context.Context, name string) error
}

// Handler serves /participants and /status.
type Handler struct {
	registry Registry
}

// New creates a participant handler.
func New(registry Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes mounts the participant routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/participants", h.handleJoin)
	r.Get("/participants", h.handleList)
	r.Post("/status", h.handleStatus)
}

// handleJoin answers 409 for a malformed body and 422 for a taken name.
func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	record, err := validate.DecodeRecord(r.Body)
	if err != nil {
		utils.RespondFieldErrors(w, http.StatusConflict, err)
		return
	}

	name, err := validate.ParseParticipant(record)
	if err != nil {
		utils.RespondFieldErrors(w, http.StatusConflict, err)
		return
	}

	err = h.registry.Join(r.Context(), name)
	switch {
	case err == nil:
		utils.RespondStatus(w, http.StatusCreated)
	case errors.Is(err, presence.ErrAlreadyExists):
		utils.RespondStatus(w, http.StatusUnprocessableEntity)
	case utils.IsFieldErrors(err):
		utils.RespondFieldErrors(w, http.StatusConflict, err)
	default:
		utils.RespondInternal(w, r, err)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	participants, err := h.registry.List(r.Context())
	if err != nil {
		utils.RespondInternal(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, participants)
}

// handleStatus refreshes the caller's lastSeen. A missing header and an
// unknown participant are both 404.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	name := utils.ActingName(r)
	if err := validate.Header(utils.UserHeader, name); err != nil {
		utils.RespondFieldErrors(w, http.StatusNotFound, err)
		return
	}

	err := h.registry.Refresh(r.Context(), name)
	switch {
	case err == nil:
		utils.RespondStatus(w, http.StatusOK)
	case errors.Is(err, presence.ErrNotFound):
		utils.RespondStatus(w, http.StatusNotFound)
	default:
		utils.RespondInternal(w, r, err)
	}
}
