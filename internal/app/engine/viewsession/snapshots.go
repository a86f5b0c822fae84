package viewsession

import (
	"context"

	"github.com/dalemusser/quicklist/internal/app/engine/completion"
	"github.com/dalemusser/quicklist/internal/app/system/docstore"
	"github.com/dalemusser/quicklist/internal/domain/models"
	"go.uber.org/zap"
)

func (s *Session) applyLists(snap docstore.Snapshot) {
	if snap.Err != nil {
		s.failLists(snap.Err)
		return
	}

	records := make([]models.List, 0, len(snap.Docs))
	for _, d := range snap.Docs {
		records = append(records, models.ListFromFields(d.ID, d.Fields))
	}
	if err := s.lists.Ingest(listsCollection, records); err != nil {
		s.failLists(err)
		return
	}

	// Lists that left the snapshot (deleted, or membership lost) take their
	// item state with them.
	table := s.lists.Table(listsCollection)
	for listID := range s.itemSubs {
		if _, ok := table.Get(listID); !ok {
			s.closeList(listID)
		}
	}

	view := s.listsView()
	s.broadcast(Update{Kind: UpdateLists, Lists: &view})
	s.markReady()
}

// failLists ends the session. Listeners get the error before their
// channels close, and the next Manager.Get starts a fresh session.
func (s *Session) failLists(err error) {
	s.failSubscription(listsCollection, err)
	s.cancel()
}

func (s *Session) markReady() {
	if !s.isReady {
		s.isReady = true
		close(s.ready)
	}
}

// openList subscribes to a list's items if not already subscribed.
func (s *Session) openList(listID string) error {
	if _, ok := s.lists.Table(listsCollection).Get(listID); !ok {
		return ErrListNotFound
	}
	if _, ok := s.itemSubs[listID]; ok {
		return nil
	}

	s.nextGen++
	gen := s.nextGen
	sub, err := s.remote.Subscribe(context.Background(), docstore.Query{
		Collection: docstore.ItemsPath(listID),
	}, func(snap docstore.Snapshot) {
		s.post(func() { s.applyItems(listID, gen, snap) })
	})
	if err != nil {
		return err
	}
	s.itemSubs[listID] = &itemSub{gen: gen, sub: sub}
	s.log.Debug("list opened", zap.String("list_id", listID))
	return nil
}

func (s *Session) closeList(listID string) {
	if is, ok := s.itemSubs[listID]; ok {
		is.sub.Close()
		delete(s.itemSubs, listID)
	}
	coll := itemsCollection(listID)
	s.items.Drop(coll)
	delete(s.subErrs, coll)
	delete(s.itemIntents, listID)
	s.detector.Forget(listID)
	s.dropItemUndo(listID)
}

func (s *Session) applyItems(listID string, gen int, snap docstore.Snapshot) {
	is, ok := s.itemSubs[listID]
	if !ok || is.gen != gen {
		return
	}
	coll := itemsCollection(listID)

	if snap.Err != nil {
		s.failSubscription(coll, snap.Err)
		is.sub.Close()
		delete(s.itemSubs, listID)
		return
	}

	records := make([]models.Item, 0, len(snap.Docs))
	for _, d := range snap.Docs {
		records = append(records, models.ItemFromFields(d.ID, listID, d.Fields))
	}
	if err := s.items.Ingest(coll, records); err != nil {
		s.failSubscription(coll, err)
		return
	}
	delete(s.subErrs, coll)

	view := s.itemsView(listID)
	s.broadcast(Update{Kind: UpdateItems, ListID: listID, Items: &view})

	if completion.Observe(s.detector, listID, s.items.Table(coll).Records()) {
		s.log.Info("list completed", zap.String("list_id", listID))
		s.broadcast(Update{Kind: UpdateCompleted, ListID: listID})
	}
}

func (s *Session) failSubscription(collection string, err error) {
	s.subErrs[collection] = err
	s.log.Error("subscription failed", zap.String("collection", collection), zap.Error(err))
	s.broadcast(Update{Kind: UpdateError, Collection: collection, Err: err.Error()})
}
