// internal/app/features/feed/routes.go
package feed

import (
	"github.com/dalemusser/quicklist/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeFeed)
	return r
}
