package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/kronos/internal/logging"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the API router around h.
func NewRouter(h *TeamHandler, logger *logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(logger))
	r.Use(CORS)

	r.Get("/health", h.HealthCheck)

	r.Route("/gamers", func(r chi.Router) {
		r.Post("/", h.RegisterGamer)
		r.Get("/{id}", h.GetGamer)
	})

	r.Route("/teams", func(r chi.Router) {
		r.Get("/{code}", h.GetTeam)
		r.Get("/{code}/members", h.ListMembers)
		r.Get("/{code}/consensus", h.GetConsensus)

		r.Group(func(r chi.Router) {
			r.Use(RequireGamer)
			r.Post("/", h.CreateTeam)
			r.Post("/join", h.JoinTeam)
			r.Get("/{code}/availability", h.GetAvailability)
			r.Put("/{code}/availability", h.SetAvailability)
		})
	})

	return r
}
