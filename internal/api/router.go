package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lodmerge/internal/mergeservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *mergeservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/assets", h.ListAssets)
	r.Get("/assets/*", h.GetAsset)
	r.Put("/assets/*", h.PutAsset)
	r.Patch("/assets/*", h.MoveAsset)
	r.Delete("/assets/*", h.DeleteAsset)

	r.Get("/search", h.Search)

	r.Post("/merges", h.CreateMerge)
	r.Get("/merges", h.ListMerges)
	r.Get("/merges/{id}", h.GetMerge)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
