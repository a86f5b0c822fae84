// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// body is the JSON shape of every error response.
type body struct {
	Error string `json:"error"`
}

// Handler serves the router-level NotFound and MethodNotAllowed responses.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is installed as the router's NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	Render(w, r, http.StatusNotFound, "not found")
}

// MethodNotAllowed is installed as the router's MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Render(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

// Render writes {"error": msg} with the given status.
func Render(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, body{Error: msg})
}

// BadRequest writes a 400.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	Render(w, r, http.StatusBadRequest, msg)
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	Render(w, r, http.StatusUnauthorized, "unauthorized")
}

// Internal writes a 500 with an opaque message.
func Internal(w http.ResponseWriter, r *http.Request) {
	Render(w, r, http.StatusInternalServerError, "internal error")
}
