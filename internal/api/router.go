package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all dashboard routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Pipeline commands, run one at a time in the background.
	r.Post("/jobs/{command}", h.StartJob)

	// Synchronous read-only views.
	r.Get("/report", h.Report)
	r.Get("/search", h.Search)
	r.Get("/manifest", h.Manifest)
	r.Get("/validate/links", h.ValidateLinks)

	// Staging capture.
	r.Post("/ingest", h.Ingest)

	// SSE log/job stream (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
