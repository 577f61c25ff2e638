package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paxocial/scribe/internal/engine"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *engine.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Document reads.
	r.Get("/docs", h.ListDocs)
	r.Get("/docs/*", h.GetDoc)

	// Audit log.
	r.Get("/audit", h.AuditTrail)

	// All mutations and checks go through the single action endpoint.
	r.Post("/edit", h.Edit)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
