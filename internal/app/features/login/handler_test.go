package login_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/quicklist/internal/app/features/login"
	memorystore "github.com/dalemusser/quicklist/internal/app/store/memory"
	"github.com/dalemusser/quicklist/internal/app/system/auth"
	"github.com/dalemusser/quicklist/internal/app/system/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(t *testing.T) (*login.Handler, *memorystore.Accounts) {
	t.Helper()
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	accounts := memorystore.NewAccounts(bcrypt.MinCost)
	return login.NewHandler(accounts, sessionMgr, ratelimit.NewAttemptLimiter(), logger), accounts
}

func post(h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func hasSessionCookie(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.Value != "" {
			return true
		}
	}
	return false
}

func TestHandleLoginPost_Success(t *testing.T) {
	h, accounts := newTestHandler(t)
	u, err := accounts.Register(context.Background(), "ana@example.com", "secret1", "Ana")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec := post(h.HandleLoginPost, "/login", `{"email":"ana@example.com","password":"secret1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != u.ID {
		t.Errorf("id = %q, want %q", body.ID, u.ID)
	}
	if !hasSessionCookie(rec) {
		t.Error("expected a session cookie")
	}
}

func TestHandleLoginPost_Failures(t *testing.T) {
	h, accounts := newTestHandler(t)
	if _, err := accounts.Register(context.Background(), "ana@example.com", "secret1", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"email":"ana@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"bob@example.com","password":"secret1"}`, http.StatusUnauthorized},
		{"bad json", `{"email":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h.HandleLoginPost, "/login", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if hasSessionCookie(rec) {
				t.Error("failed login must not set a session cookie")
			}
		})
	}
}

func TestHandleRegister(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := post(h.HandleRegister, "/login/register", `{"email":"ana@example.com","password":"secret1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	if !hasSessionCookie(rec) {
		t.Error("registration should sign the user in")
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"duplicate", `{"email":"ana@example.com","password":"secret1"}`, http.StatusConflict},
		{"short password", `{"email":"bob@example.com","password":"123"}`, http.StatusBadRequest},
		{"missing email", `{"email":"","password":"secret1"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := post(h.HandleRegister, "/login/register", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleLoginPost_RateLimited(t *testing.T) {
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	limiter := ratelimit.NewAttemptLimiterWith(ratelimit.New(100, time.Minute), ratelimit.New(2, time.Minute))
	h := login.NewHandler(memorystore.NewAccounts(bcrypt.MinCost), sessionMgr, limiter, logger)

	body := `{"email":"ana@example.com","password":"nope"}`
	for i := 0; i < 2; i++ {
		if rec := post(h.HandleLoginPost, "/login", body); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, rec.Code)
		}
	}
	if rec := post(h.HandleLoginPost, "/login", body); rec.Code != http.StatusTooManyRequests {
		t.Errorf("third attempt: status = %d, want 429", rec.Code)
	}
}
