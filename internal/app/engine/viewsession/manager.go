package viewsession

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/quicklist/internal/app/engine/sharing"
	"github.com/dalemusser/quicklist/internal/app/system/docstore"
	"go.uber.org/zap"
)

// Manager keeps one Session per signed-in user.
type Manager struct {
	remote docstore.Store
	dir    sharing.Directory
	log    *zap.Logger
	cfg    Config

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(remote docstore.Store, dir sharing.Directory, logger *zap.Logger, cfg Config) *Manager {
	return &Manager{
		remote:   remote,
		dir:      dir,
		log:      logger,
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// Get returns the user's session, starting one if needed, once its first
// lists snapshot has arrived. A session that ended on its own, such as
// after a lists subscription failure, is replaced.
func (m *Manager) Get(ctx context.Context, userID string) (*Session, error) {
	var ended *Session
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok || s.Closed() {
		if ok {
			ended = s
		}
		var err error
		s, err = Start(m.remote, m.dir, userID, m.log, m.cfg)
		if err != nil {
			delete(m.sessions, userID)
			m.mu.Unlock()
			if ended != nil {
				ended.Close()
			}
			return nil, err
		}
		m.sessions[userID] = s
	}
	m.mu.Unlock()

	if ended != nil {
		ended.Close()
	}

	if err := s.Ready(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// End closes the user's session, if any. Called on sign-out.
func (m *Manager) End(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseIdle closes sessions with no listener and no request since
// now-maxIdle. It returns how many were closed.
func (m *Manager) CloseIdle(now time.Time, maxIdle time.Duration) int {
	var idle []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		since, ok := s.IdleSince()
		if s.Closed() || (ok && now.Sub(since) > maxIdle) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
