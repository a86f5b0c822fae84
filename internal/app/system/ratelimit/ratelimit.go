// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrTooManyAttempts is returned by AttemptLimiter.Check when a key is
// over its limit.
var ErrTooManyAttempts = errors.New("too many attempts, try again later")

// Limiter counts requests per key in fixed windows. It is safe for
// concurrent use. Expired windows are dropped lazily on Allow once the
// map grows past sweepAt entries.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]window
	limit    int
	duration time.Duration
	sweepAt  int
	now      func() time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per key per duration.
func New(limit int, duration time.Duration) *Limiter {
	return &Limiter{
		windows:  make(map[string]window),
		limit:    limit,
		duration: duration,
		sweepAt:  1024,
		now:      time.Now,
	}
}

// WithClock replaces the limiter's clock. Tests use it.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	return l
}

// Allow records a request for key and reports whether it is within the
// limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.windows) >= l.sweepAt {
		l.sweepLocked(now)
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		l.windows[key] = window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	l.windows[key] = w
	return true
}

// Remaining returns how many requests are left for key in its window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !l.now().Before(w.expiresAt) {
		return l.limit
	}
	return max(l.limit-w.count, 0)
}

// Reset clears the window for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func (l *Limiter) sweepLocked(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.expiresAt) {
			delete(l.windows, k)
		}
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// AttemptLimiter guards sign-in and registration. It limits attempts per
// client IP and per account email.
type AttemptLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewAttemptLimiter allows 10 attempts per IP per minute and 5 per email
// per 5 minutes.
func NewAttemptLimiter() *AttemptLimiter {
	return NewAttemptLimiterWith(New(10, time.Minute), New(5, 5*time.Minute))
}

// NewAttemptLimiterWith builds an AttemptLimiter from explicit limiters.
func NewAttemptLimiterWith(byIP, byEmail *Limiter) *AttemptLimiter {
	return &AttemptLimiter{byIP: byIP, byEmail: byEmail}
}

// Check records an attempt and returns ErrTooManyAttempts when either
// the IP or the email is over its limit.
func (a *AttemptLimiter) Check(r *http.Request, email string) error {
	if !a.byIP.Allow(ClientIP(r)) {
		return ErrTooManyAttempts
	}
	if key := emailKey(email); key != "" && !a.byEmail.Allow(key) {
		return ErrTooManyAttempts
	}
	return nil
}

// Succeeded clears the email's window after a successful sign-in.
func (a *AttemptLimiter) Succeeded(email string) {
	if key := emailKey(email); key != "" {
		a.byEmail.Reset(key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
