package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/handler/message"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/handler/participant"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/handler/stream"
	middlewarePkg "github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/middleware"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/pkg/utils"
)

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles what the routes call into.
type Services struct {
	Registry interface {
		participant.Registry
		stream.Presence
	}
	Relay        message.Relay
	Hub          stream.Subscriber
	Store        Pinger
	StreamBuffer int
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svc Services, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	participant.New(svc.Registry).RegisterRoutes(r)
	message.New(svc.Relay).RegisterRoutes(r)
	stream.New(svc.Hub, svc.Registry, svc.StreamBuffer).RegisterRoutes(r)

	r.Get("/healthz", handleHealth(svc.Store))

	return r
}

func handleHealth(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("store ping failed")
			utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
