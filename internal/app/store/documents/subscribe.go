// internal/app/store/documents/subscribe.go
package documentstore

import (
	"context"
	"reflect"
	"time"

	"github.com/dalemusser/quicklist/internal/app/system/docstore"
	"github.com/dalemusser/quicklist/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type subscription struct {
	cancel context.CancelFunc
}

func (s *subscription) Close() { s.cancel() }

// Subscribe delivers a full snapshot of q now and after every change to the
// underlying collection. It returns immediately; the change stream (or,
// on servers without change streams, a poller) runs on its own goroutine
// and delivers snapshots to fn in order.
func (s *Store) Subscribe(ctx context.Context, q docstore.Query, fn func(docstore.Snapshot)) (docstore.Subscription, error) {
	c, _, _, err := s.collection(q)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	w := &watcher{store: s, coll: c, q: q, fn: fn}
	go w.run(ctx)
	return &subscription{cancel: cancel}, nil
}

type watcher struct {
	store *Store
	coll  *mongo.Collection
	q     docstore.Query
	fn    func(docstore.Snapshot)
	last  []docstore.Document
	sent  bool
}

func (w *watcher) run(ctx context.Context) {
	log := w.store.log.With(zap.String("collection", string(w.q.Collection)))

	// Open the stream before the first query so no change falls between.
	stream, err := w.coll.Watch(ctx, mongo.Pipeline{}, options.ChangeStream())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if txn.IsChangeStreamUnsupported(err) {
			log.Debug("change streams unavailable; polling", zap.Duration("interval", w.store.poll))
			w.poll(ctx)
			return
		}
		w.fail(err)
		return
	}
	defer stream.Close(context.Background())

	if !w.emit(ctx) {
		return
	}
	for stream.Next(ctx) {
		// Collapse a burst of events into one snapshot.
		for stream.TryNext(ctx) {
		}
		if !w.emit(ctx) {
			return
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		log.Warn("change stream ended", zap.Error(err))
		w.fail(err)
	}
}

func (w *watcher) poll(ctx context.Context) {
	if !w.emit(ctx) {
		return
	}
	t := time.NewTicker(w.store.poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !w.emit(ctx) {
				return
			}
		}
	}
}

// emit queries and delivers a snapshot when it differs from the last one.
// It reports false when the subscription should stop.
func (w *watcher) emit(ctx context.Context) bool {
	docs, err := w.store.Query(ctx, w.q)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		w.fail(err)
		return false
	}
	if w.sent && reflect.DeepEqual(docs, w.last) {
		return true
	}
	w.last, w.sent = docs, true
	w.fn(docstore.Snapshot{Docs: docs})
	return true
}

func (w *watcher) fail(err error) {
	w.fn(docstore.Snapshot{Err: err})
}
