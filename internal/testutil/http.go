package testutil

import (
	"context"
	"net/http"

	"github.com/dalemusser/quicklist/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// WithUser signs the request in as userID, bypassing the session cookie.
func WithUser(r *http.Request, userID, email string) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{ID: userID, Email: email})
}
