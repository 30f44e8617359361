package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
)

type RouterConfig struct {
	JWTSecret      string
	JWTIssuer      string
	StatusRateMax  int
	StatusRateSpan time.Duration
}

func NewRouter(h *Handler, l logger.Logger, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestID(l))
	r.Use(AccessLog(l))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(cfg.JWTSecret, cfg.JWTIssuer, l))

		r.Route("/participant", func(r chi.Router) {
			r.With(RateLimit(cfg.StatusRateMax, cfg.StatusRateSpan)).
				Get("/api/event-status/{eventId}", h.GetEventStatus)
			r.Get("/events/{eventId}/seats", h.SeatWidget)
			r.Get("/events/{eventId}/seats/stream", h.StreamSeats)
		})

		r.Route("/organizer", func(r chi.Router) {
			r.Use(RequireRole(RoleOrganizer, RoleAdmin))
			r.Put("/api/events/{eventId}/status", h.UpdateEventStatus)
		})
	})

	return r
}
