// internal/app/system/workers/viewsessioncleanup.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// IdleCloser closes view sessions idle for longer than maxIdle and reports
// how many it closed. viewsession.Manager implements it.
type IdleCloser interface {
	CloseIdle(now time.Time, maxIdle time.Duration) int
}

// ViewSessionCleanup is a background worker that ends idle view sessions,
// releasing their subscriptions and view intents.
type ViewSessionCleanup struct {
	sessions IdleCloser
	log      *zap.Logger
	interval time.Duration
	maxIdle  time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewViewSessionCleanup creates a new cleanup worker.
//
// Parameters:
//   - sessions: the view session manager
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 1 minute)
//   - maxIdle: how long a session may go without a request or listener (e.g., 15 minutes)
func NewViewSessionCleanup(sessions IdleCloser, logger *zap.Logger, interval, maxIdle time.Duration) *ViewSessionCleanup {
	return &ViewSessionCleanup{
		sessions: sessions,
		log:      logger,
		interval: interval,
		maxIdle:  maxIdle,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *ViewSessionCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("view session cleanup worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("max_idle", w.maxIdle))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *ViewSessionCleanup) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("view session cleanup worker stopped")
	})
}

func (w *ViewSessionCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *ViewSessionCleanup) cleanup() {
	if n := w.sessions.CloseIdle(w.now(), w.maxIdle); n > 0 {
		w.log.Info("closed idle view sessions", zap.Int("count", n))
	}
}
