// internal/app/features/errors/engine.go
package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/quicklist/internal/app/engine/mutation"
	"github.com/dalemusser/quicklist/internal/app/engine/sharing"
	"github.com/dalemusser/quicklist/internal/app/engine/viewsession"
	"go.uber.org/zap"
)

// FromEngine maps a view session error to a status code and an opaque
// message. Unrecognised errors are logged and reported as 500.
func FromEngine(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status, msg := Classify(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	Render(w, r, status, msg)
}

// Classify returns the status and message FromEngine would write for err.
func Classify(err error) (int, string) {
	switch {
	case stderrors.Is(err, viewsession.ErrListNotFound):
		return http.StatusNotFound, "list not found"
	case stderrors.Is(err, viewsession.ErrItemNotFound):
		return http.StatusNotFound, "item not found"
	case stderrors.Is(err, viewsession.ErrUndoNotFound):
		return http.StatusNotFound, "nothing to undo"
	case stderrors.Is(err, viewsession.ErrUndoExpired):
		return http.StatusGone, "undo window has passed"
	case stderrors.Is(err, viewsession.ErrBlankText):
		return http.StatusBadRequest, "item text is required"
	case stderrors.Is(err, viewsession.ErrValueMissing):
		return http.StatusBadRequest, "value is required"
	case stderrors.Is(err, sharing.ErrIdentifierRequired):
		return http.StatusBadRequest, "email is required"
	case stderrors.Is(err, sharing.ErrNotFound):
		return http.StatusNotFound, "no user with that email"
	case stderrors.Is(err, sharing.ErrWriteFailed):
		return http.StatusBadGateway, "could not share list"
	case stderrors.Is(err, mutation.ErrWriteFailed):
		return http.StatusBadGateway, "could not save change"
	case stderrors.Is(err, mutation.ErrNotFound):
		return http.StatusNotFound, "not found"
	case stderrors.Is(err, viewsession.ErrClosed):
		return http.StatusServiceUnavailable, "session ended"
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "request timed out"
	}
	return http.StatusInternalServerError, "internal error"
}
