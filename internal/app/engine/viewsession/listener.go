package viewsession

import (
	"context"
	"sync"
)

// listener feeds one Listen channel from a queue so the loop never blocks
// on a slow reader. Projection updates replace any queued update for the
// same view; events (completed, write_failed, subscription_error) are
// always kept.
type listener struct {
	out  chan Update
	wake chan struct{}

	mu       sync.Mutex
	queue    []Update
	finished bool
}

func newListener() *listener {
	return &listener{
		out:  make(chan Update, 64),
		wake: make(chan struct{}, 1),
	}
}

// viewKey identifies the view a projection update replaces. Events have
// no key.
func viewKey(u Update) (string, bool) {
	switch u.Kind {
	case UpdateLists:
		return listsCollection, true
	case UpdateItems:
		return itemsCollection(u.ListID), true
	default:
		return "", false
	}
}

func (l *listener) push(u Update) {
	l.mu.Lock()
	if key, ok := viewKey(u); ok {
		for i, q := range l.queue {
			if k, ok := viewKey(q); ok && k == key {
				l.queue = append(l.queue[:i], l.queue[i+1:]...)
				break
			}
		}
	}
	l.queue = append(l.queue, u)
	l.mu.Unlock()
	l.signal()
}

// finish lets run deliver what is queued and then close out.
func (l *listener) finish() {
	l.mu.Lock()
	l.finished = true
	l.mu.Unlock()
	l.signal()
}

func (l *listener) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// run forwards queued updates to out until finish has been called and the
// queue is empty, or ctx is done.
func (l *listener) run(ctx context.Context) {
	defer close(l.out)
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			finished := l.finished
			l.mu.Unlock()
			if finished {
				return
			}
			select {
			case <-l.wake:
				continue
			case <-ctx.Done():
				return
			}
		}
		u := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		select {
		case l.out <- u:
		case <-ctx.Done():
			return
		}
	}
}
