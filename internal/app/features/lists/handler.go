// internal/app/features/lists/handler.go
package lists

import (
	"net/http"
	"strings"

	"github.com/dalemusser/quicklist/internal/app/engine/viewsession"
	apierrors "github.com/dalemusser/quicklist/internal/app/features/errors"
	"github.com/dalemusser/quicklist/internal/app/system/textsanitize"
	"github.com/dalemusser/quicklist/internal/app/system/viewdata"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// Handler serves the lists screen: the visible lists projection, its view
// intent, list creation, row intents, and undo.
type Handler struct {
	Views viewdata.Provider
	Log   *zap.Logger
}

func NewHandler(views viewdata.Provider, logger *zap.Logger) *Handler {
	return &Handler{
		Views: views,
		Log:   logger,
	}
}

type createRequest struct {
	Name string `json:"name"`
}

type createResponse struct {
	ID string `json:"id"`
}

type intentRequest struct {
	Action string `json:"action"`
	Value  string `json:"value"`
}

// ServeLists handles GET /lists.
func (h *Handler) ServeLists(w http.ResponseWriter, r *http.Request) {
	sess, ok := viewdata.Session(w, r, h.Views, h.Log)
	if !ok {
		return
	}
	v, err := sess.Lists(r.Context())
	if err != nil {
		apierrors.FromEngine(w, r, h.Log, err)
		return
	}
	render.JSON(w, r, v)
}

// HandleView handles PUT /lists/view.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	var in viewdata.IntentRequest
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		apierrors.BadRequest(w, r, "invalid request body")
		return
	}
	sess, ok := viewdata.Session(w, r, h.Views, h.Log)
	if !ok {
		return
	}
	v, err := sess.SetListIntent(r.Context(), in.Intent())
	if err != nil {
		apierrors.FromEngine(w, r, h.Log, err)
		return
	}
	render.JSON(w, r, v)
}

// HandleCreate handles POST /lists. A blank name falls back to the
// default list name.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		apierrors.BadRequest(w, r, "invalid request body")
		return
	}
	sess, ok := viewdata.Session(w, r, h.Views, h.Log)
	if !ok {
		return
	}
	id, err := sess.CreateList(r.Context(), textsanitize.Plain(in.Name))
	if err != nil {
		apierrors.FromEngine(w, r, h.Log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, createResponse{ID: id})
}

// HandleIntent handles POST /lists/{listID}/intents. The value is trimmed
// the same way registration trims emails.
func (h *Handler) HandleIntent(w http.ResponseWriter, r *http.Request) {
	var in intentRequest
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		apierrors.BadRequest(w, r, "invalid request body")
		return
	}
	action, err := viewsession.ParseAction(in.Action)
	if err != nil {
		apierrors.BadRequest(w, r, err.Error())
		return
	}
	sess, ok := viewdata.Session(w, r, h.Views, h.Log)
	if !ok {
		return
	}

	out, err := sess.Dispatch(r.Context(), viewsession.RowIntent{
		Action: action,
		ListID: chi.URLParam(r, "listID"),
		Value:  strings.TrimSpace(in.Value),
	})
	if err != nil {
		apierrors.FromEngine(w, r, h.Log, err)
		return
	}
	render.JSON(w, r, out)
}

// HandleUndo handles POST /lists/undo/{token}.
func (h *Handler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := viewdata.Session(w, r, h.Views, h.Log)
	if !ok {
		return
	}
	if err := sess.Undo(r.Context(), chi.URLParam(r, "token")); err != nil {
		apierrors.FromEngine(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
