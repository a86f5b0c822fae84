package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/quicklist/internal/app/features/logout"
	"github.com/dalemusser/quicklist/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type recordingEnder struct{ ended []string }

func (e *recordingEnder) End(userID string) { e.ended = append(e.ended, userID) }

func newTestHandler(t *testing.T) (*logout.Handler, *auth.SessionManager, *recordingEnder) {
	t.Helper()
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	ender := &recordingEnder{}
	return logout.NewHandler(sessionMgr, ender, logger), sessionMgr, ender
}

func TestServeLogout_EndsViewSessionAndClearsCookie(t *testing.T) {
	h, _, ender := newTestHandler(t)

	req := httptest.NewRequest("POST", "/logout", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Email: "u1@example.com"})
	rec := httptest.NewRecorder()

	h.ServeLogout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if len(ender.ended) != 1 || ender.ended[0] != "u1" {
		t.Errorf("ended = %v, want [u1]", ender.ended)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the session cookie to be expired")
	}
}

func TestRoutes_RequiresSignIn(t *testing.T) {
	h, sm, ender := newTestHandler(t)
	r := chi.NewRouter()
	r.Mount("/logout", logout.Routes(h, sm))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/logout", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if len(ender.ended) != 0 {
		t.Errorf("no session should be ended, got %v", ender.ended)
	}
}
