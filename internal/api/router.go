package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/autoindex/internal/indexservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *indexservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/index", h.GetIndex)
	r.Get("/index/*", h.GetIndex)

	r.Get("/widgets", h.ListWidgets)
	r.Post("/widgets/{name}/render", h.RenderWidget)

	r.Get("/renders", h.ListRenders)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
