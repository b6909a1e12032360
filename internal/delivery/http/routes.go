package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vogiaan1904/sessiongate/internal/auth"
)

func NewRouter(h *HTTPHandler, v auth.Verifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1/sessions/{id}", func(r chi.Router) {
		r.Use(h.Authenticate(v))

		r.Get("/status", h.GetStatus)
		r.Get("/attendance", h.GetAttendance)
		r.Post("/join", h.Join)
		r.Post("/leave", h.Leave)
		r.Post("/start", h.Start)
		r.Post("/complete", h.Complete)
		r.Post("/cancel", h.Cancel)
	})

	return r
}
