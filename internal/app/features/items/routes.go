// internal/app/features/items/routes.go
package items

import "github.com/go-chi/chi/v5"

// Routes returns the item subrouter. It is mounted under
// /lists/{listID}/items, behind the lists router's sign-in check.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeItems)
	r.Post("/", h.HandleCreate)
	r.Put("/view", h.HandleView)
	r.Post("/{itemID}/checked", h.HandleChecked)
	r.Post("/{itemID}/quantity", h.HandleQuantity)
	r.Delete("/{itemID}", h.HandleDelete)
	return r
}
