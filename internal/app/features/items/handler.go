// internal/app/features/items/handler.go
package items

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apierrors "github.com/dalemusser/quicklist/internal/app/features/errors"
	"github.com/dalemusser/quicklist/internal/app/system/textsanitize"
	"github.com/dalemusser/quicklist/internal/app/system/viewdata"
	"github.com/dalemusser/quicklist/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// Handler serves one list's items: the visible projection, its view
// intent, and the item mutations.
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

// quantityText accepts a JSON number or string. Anything unparsable
// becomes models.MinQuantity.
type quantityText int

func (q *quantityText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*q = models.MinQuantity
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	*q = quantityText(models.ParseQuantity(s))
	return nil
}

type createRequest struct {
	Text     string        `json:"text"`
	Quantity *quantityText `json:"quantity"`
}

type checkedRequest struct {
	Checked *bool `json:"checked"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
	Delta    *int `json:"delta"`
}

type idResponse struct {
	ID string `json:"id"`
}

type checkedResponse struct {
	Checked bool `json:"checked"`
}

type quantityResponse struct {
	Quantity int `json:"quantity"`
}

type undoResponse struct {
	UndoToken string `json:"undo_token"`
}

// ServeItems handles GET /lists/{listID}/items.
func (h *Handler) ServeItems(w http.ResponseWriter, r *http.Request) {
	sess, ok := viewdata.Session(w, r, h.Views, h.Log)
	if !ok {
		return
	}
	v, err := sess.Items(r.Context(), chi.URLParam(r, "listID"))
	if err != nil {
		apierrors.FromEngine(w, r, h.Log, err)
		return
	}
	render.JSON(w, r, v)
}

// HandleView handles PUT /lists/{listID}/items/view.
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
	v, err := sess.SetItemIntent(r.Context(), chi.URLParam(r, "listID"), in.Intent())
	if err != nil {
		apierrors.FromEngine(w, r, h.Log, err)
		return
	}
	render.JSON(w, r, v)
}

// HandleCreate handles POST /lists/{listID}/items.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		apierrors.BadRequest(w, r, "invalid request body")
		return
	}
	quantity := models.MinQuantity
	if in.Quantity != nil {
		quantity = int(*in.Quantity)
	}
	sess, ok := viewdata.Session(w, r, h.Views, h.Log)
	if !ok {
		return
	}
	id, err := sess.CreateItem(r.Context(), chi.URLParam(r, "listID"), textsanitize.Plain(in.Text), quantity)
	if err != nil {
		apierrors.FromEngine(w, r, h.Log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, idResponse{ID: id})
}

// HandleChecked handles POST /lists/{listID}/items/{itemID}/checked.
// Without "checked" in the body the current state is flipped.
func (h *Handler) HandleChecked(w http.ResponseWriter, r *http.Request) {
	var in checkedRequest
	if err := decodeOptional(r, &in); err != nil {
		apierrors.BadRequest(w, r, "invalid request body")
		return
	}
	sess, ok := viewdata.Session(w, r, h.Views, h.Log)
	if !ok {
		return
	}
	listID, itemID := chi.URLParam(r, "listID"), chi.URLParam(r, "itemID")

	var checked bool
	var err error
	if in.Checked == nil {
		checked, err = sess.FlipChecked(r.Context(), listID, itemID)
	} else {
		checked = *in.Checked
		err = sess.SetChecked(r.Context(), listID, itemID, checked)
	}
	if err != nil {
		apierrors.FromEngine(w, r, h.Log, err)
		return
	}
	render.JSON(w, r, checkedResponse{Checked: checked})
}

// HandleQuantity handles POST /lists/{listID}/items/{itemID}/quantity with
// either an absolute "quantity" or a "delta".
func (h *Handler) HandleQuantity(w http.ResponseWriter, r *http.Request) {
	var in quantityRequest
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		apierrors.BadRequest(w, r, "invalid request body")
		return
	}
	if (in.Quantity == nil) == (in.Delta == nil) {
		apierrors.BadRequest(w, r, "exactly one of quantity or delta is required")
		return
	}
	sess, ok := viewdata.Session(w, r, h.Views, h.Log)
	if !ok {
		return
	}
	listID, itemID := chi.URLParam(r, "listID"), chi.URLParam(r, "itemID")

	var q int
	var err error
	if in.Quantity != nil {
		q, err = sess.SetQuantity(r.Context(), listID, itemID, *in.Quantity)
	} else {
		q, err = sess.AdjustQuantity(r.Context(), listID, itemID, *in.Delta)
	}
	if err != nil {
		apierrors.FromEngine(w, r, h.Log, err)
		return
	}
	render.JSON(w, r, quantityResponse{Quantity: q})
}

// HandleDelete handles DELETE /lists/{listID}/items/{itemID}. The token
// is redeemed with POST /lists/undo/{token}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := viewdata.Session(w, r, h.Views, h.Log)
	if !ok {
		return
	}
	tok, err := sess.DeleteItem(r.Context(), chi.URLParam(r, "listID"), chi.URLParam(r, "itemID"))
	if err != nil {
		apierrors.FromEngine(w, r, h.Log, err)
		return
	}
	render.JSON(w, r, undoResponse{UndoToken: tok})
}

// decodeOptional decodes a JSON body, treating an empty body as {}.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
