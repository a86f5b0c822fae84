package ratelimit_test

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/quicklist/internal/app/system/ratelimit"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestLimiter_WindowAndReset(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := ratelimit.New(2, time.Minute).WithClock(clock.now)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("a") {
		t.Error("third request should be limited")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if !l.Allow("b") {
		t.Error("keys are independent")
	}

	clock.t = clock.t.Add(time.Minute)
	if !l.Allow("a") {
		t.Error("a new window should allow again")
	}

	l.Reset("a")
	if got := l.Remaining("a"); got != 2 {
		t.Errorf("Remaining after Reset = %d, want 2", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:1234", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.7 "}, "10.0.0.1:1234", "198.51.100.7"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/login", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := ratelimit.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAttemptLimiter(t *testing.T) {
	a := ratelimit.NewAttemptLimiterWith(ratelimit.New(100, time.Minute), ratelimit.New(2, time.Minute))
	r := httptest.NewRequest("POST", "/login", nil)

	for i := 0; i < 2; i++ {
		if err := a.Check(r, "Ana@Example.com"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if err := a.Check(r, " ana@example.com"); !errors.Is(err, ratelimit.ErrTooManyAttempts) {
		t.Errorf("third attempt: got %v, want ErrTooManyAttempts", err)
	}
	if err := a.Check(r, "bob@example.com"); err != nil {
		t.Errorf("other email should pass: %v", err)
	}

	a.Succeeded("ana@example.com")
	if err := a.Check(r, "ana@example.com"); err != nil {
		t.Errorf("after success the email window resets: %v", err)
	}
}
