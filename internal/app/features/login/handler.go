// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/quicklist/internal/app/features/errors"
	userstore "github.com/dalemusser/quicklist/internal/app/store/users"
	"github.com/dalemusser/quicklist/internal/app/system/auth"
	"github.com/dalemusser/quicklist/internal/app/system/ratelimit"
	"github.com/dalemusser/quicklist/internal/app/system/timeouts"
	"github.com/dalemusser/quicklist/internal/domain/models"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// Accounts registers and authenticates users. userstore.Store and
// memorystore.Accounts implement it.
type Accounts interface {
	Register(ctx context.Context, email, password, fullName string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

type Handler struct {
	Accounts   Accounts
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.AttemptLimiter
	Log        *zap.Logger
}

func NewHandler(accounts Accounts, sessionMgr *auth.SessionManager, limiter *ratelimit.AttemptLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   accounts,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		Log:        logger,
	}
}

// allowed applies the attempt limiter, writing 429 when it trips.
func (h *Handler) allowed(w http.ResponseWriter, r *http.Request, email string) bool {
	if err := h.Limiter.Check(r, email); err != nil {
		h.Log.Warn("sign-in attempts limited",
			zap.String("ip", ratelimit.ClientIP(r)),
			zap.String("email", email))
		apierrors.Render(w, r, http.StatusTooManyRequests, err.Error())
		return false
	}
	return true
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type signedIn struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// HandleLoginPost handles POST /login.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		apierrors.BadRequest(w, r, "invalid request body")
		return
	}

	if !h.allowed(w, r, in.Email) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := h.Accounts.Authenticate(ctx, in.Email, in.Password)
	switch {
	case errors.Is(err, userstore.ErrInvalidCredentials):
		h.Log.Info("login failed", zap.String("email", in.Email))
		apierrors.Render(w, r, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		h.Log.Error("login: authenticate", zap.Error(err))
		apierrors.Internal(w, r)
		return
	}

	h.Limiter.Succeeded(in.Email)
	h.signIn(w, r, u, http.StatusOK)
}

// HandleRegister handles POST /login/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		apierrors.BadRequest(w, r, "invalid request body")
		return
	}

	if !h.allowed(w, r, in.Email) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register")
	defer cancel()

	u, err := h.Accounts.Register(ctx, in.Email, in.Password, in.FullName)
	switch {
	case errors.Is(err, userstore.ErrEmailRequired), errors.Is(err, userstore.ErrPasswordTooShort):
		apierrors.BadRequest(w, r, err.Error())
		return
	case errors.Is(err, userstore.ErrDuplicateEmail):
		apierrors.Render(w, r, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.Log.Error("register", zap.Error(err))
		apierrors.Internal(w, r)
		return
	}

	h.Log.Info("user registered", zap.String("user_id", u.ID))
	h.signIn(w, r, &u, http.StatusCreated)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, u *models.User, status int) {
	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{ID: u.ID, Email: u.Email}); err != nil {
		h.Log.Error("login: save session", zap.Error(err))
		apierrors.Internal(w, r)
		return
	}
	render.Status(r, status)
	render.JSON(w, r, signedIn{ID: u.ID, Email: u.Email})
}
