// internal/app/store/memory/subscription.go
package memorystore

import (
	"sync"

	"github.com/dalemusser/quicklist/internal/app/system/docstore"
)

// subscription queues snapshots without bounds so writers never block on a
// slow subscriber, and delivers them in order from one goroutine.
type subscription struct {
	q      docstore.Query
	fn     func(docstore.Snapshot)
	remove func()

	mu    sync.Mutex
	queue []docstore.Snapshot
	wake  chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func newSubscription(q docstore.Query, fn func(docstore.Snapshot), remove func()) *subscription {
	return &subscription{
		q:      q,
		fn:     fn,
		remove: remove,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (s *subscription) push(snap docstore.Snapshot) {
	s.mu.Lock()
	s.queue = append(s.queue, snap)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) next() (docstore.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return docstore.Snapshot{}, false
	}
	snap := s.queue[0]
	s.queue = s.queue[1:]
	return snap, true
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		for {
			snap, ok := s.next()
			if !ok {
				break
			}
			select {
			case <-s.done:
				return
			default:
			}
			s.fn(snap)
		}
	}
}

// Close stops delivery.
func (s *subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.remove()
	})
}
