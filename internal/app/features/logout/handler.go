// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/quicklist/internal/app/system/auth"
	"go.uber.org/zap"
)

// SessionEnder ends a user's view session. viewsession.Manager implements it.
type SessionEnder interface {
	End(userID string)
}

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Views      SessionEnder
}

func NewHandler(sessionMgr *auth.SessionManager, views SessionEnder, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Views:      views,
	}
}

// ServeLogout handles POST /logout. It ends the view session, releasing
// its subscriptions, then clears the cookie.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Views.End(u.ID)
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
