// internal/app/features/lists/routes.go
package lists

import (
	"net/http"

	"github.com/dalemusser/quicklist/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /lists subrouter. items is mounted under
// /{listID}/items.
func Routes(h *Handler, sm *auth.SessionManager, items http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeLists)
	r.Post("/", h.HandleCreate)
	r.Put("/view", h.HandleView)
	r.Post("/undo/{token}", h.HandleUndo)
	r.Post("/{listID}/intents", h.HandleIntent)
	if items != nil {
		r.Mount("/{listID}/items", items)
	}
	return r
}
