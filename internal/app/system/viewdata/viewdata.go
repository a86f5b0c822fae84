// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"context"
	"net/http"

	"github.com/dalemusser/quicklist/internal/app/engine/projection"
	"github.com/dalemusser/quicklist/internal/app/engine/viewsession"
	apierrors "github.com/dalemusser/quicklist/internal/app/features/errors"
	"github.com/dalemusser/quicklist/internal/app/system/auth"
	"github.com/dalemusser/quicklist/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Provider hands out the signed-in user's view session.
// viewsession.Manager implements it.
type Provider interface {
	Get(ctx context.Context, userID string) (*viewsession.Session, error)
}

// Session returns the view session for the user in r's context. On
// failure it writes the error response and returns false.
//
// Usage:
//
//	sess, ok := viewdata.Session(w, r, h.Views, h.Log)
//	if !ok {
//	    return
//	}
func Session(w http.ResponseWriter, r *http.Request, p Provider, log *zap.Logger) (*viewsession.Session, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w, r)
		return nil, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), log, "view session")
	defer cancel()

	sess, err := p.Get(ctx, u.ID)
	if err != nil {
		apierrors.FromEngine(w, r, log, err)
		return nil, false
	}
	return sess, true
}

// IntentRequest is the JSON body of the PUT .../view endpoints.
type IntentRequest struct {
	SortMode     string `json:"sort_mode"`
	ShowArchived bool   `json:"show_archived"`
	Search       string `json:"search"`
}

// Intent converts the request into a projection intent. Unknown sort
// modes fall back to the default.
func (in IntentRequest) Intent() projection.Intent {
	return projection.Intent{
		SortMode:     projection.ParseSortMode(in.SortMode),
		ShowArchived: in.ShowArchived,
		SearchQuery:  in.Search,
	}
}
