package viewsession

import (
	"context"

	"github.com/dalemusser/quicklist/internal/app/engine/completion"
	"github.com/dalemusser/quicklist/internal/app/engine/projection"
	"github.com/dalemusser/quicklist/internal/domain/models"
)

// UpdateKind tags an Update.
type UpdateKind string

const (
	UpdateLists       UpdateKind = "lists"
	UpdateItems       UpdateKind = "items"
	UpdateCompleted   UpdateKind = "completed"
	UpdateWriteFailed UpdateKind = "write_failed"
	UpdateError       UpdateKind = "subscription_error"
)

// Update is pushed to listeners whenever a projection is rebuilt or an
// event is detected.
type Update struct {
	Kind       UpdateKind `json:"kind"`
	ListID     string     `json:"list_id,omitempty"`
	Collection string     `json:"collection,omitempty"`
	Lists      *ListsView `json:"lists,omitempty"`
	Items      *ItemsView `json:"items,omitempty"`
	Err        string     `json:"error,omitempty"`
}

// ListsView is the visible projection of the user's lists.
type ListsView struct {
	Lists  []models.List `json:"lists"`
	Intent IntentView    `json:"intent"`
	Empty  bool          `json:"empty"`
}

// ItemsView is the visible projection of one list's items.
type ItemsView struct {
	ListID   string        `json:"list_id"`
	Items    []models.Item `json:"items"`
	Intent   IntentView    `json:"intent"`
	Empty    bool          `json:"empty"`
	Complete bool          `json:"complete"`
	Loaded   bool          `json:"loaded"`
	Err      string        `json:"error,omitempty"`
}

// IntentView is the wire form of projection.Intent.
type IntentView struct {
	SortMode     string `json:"sort_mode"`
	ShowArchived bool   `json:"show_archived"`
	Search       string `json:"search"`
}

func intentView(in projection.Intent) IntentView {
	return IntentView{SortMode: in.SortMode.String(), ShowArchived: in.ShowArchived, Search: in.SearchQuery}
}

func (s *Session) listsView() ListsView {
	visible := projection.Project(s.lists.Table(listsCollection).Records(), s.listIntent)
	return ListsView{Lists: visible, Intent: intentView(s.listIntent), Empty: len(visible) == 0}
}

func (s *Session) itemsView(listID string) ItemsView {
	coll := itemsCollection(listID)
	intent := s.itemIntents[listID]
	records := s.items.Table(coll).Records()
	visible := projection.Project(records, intent)
	v := ItemsView{
		ListID:   listID,
		Items:    visible,
		Intent:   intentView(intent),
		Empty:    len(visible) == 0,
		Complete: completion.Evaluate(records) == completion.AllComplete,
		Loaded:   s.items.Has(coll),
	}
	if err, ok := s.subErrs[coll]; ok {
		v.Err = err.Error()
	}
	return v
}

// Lists returns the current visible list projection.
func (s *Session) Lists(ctx context.Context) (ListsView, error) {
	var v ListsView
	err := s.do(ctx, func() { v = s.listsView() })
	return v, err
}

// SetListIntent replaces the list view intent and returns the new projection.
func (s *Session) SetListIntent(ctx context.Context, intent projection.Intent) (ListsView, error) {
	var v ListsView
	err := s.do(ctx, func() {
		s.listIntent = intent
		v = s.listsView()
		s.broadcast(Update{Kind: UpdateLists, Lists: &v})
	})
	return v, err
}

// Items opens listID if needed and returns its visible item projection.
// Until the first items snapshot arrives the view is empty with Loaded
// false.
func (s *Session) Items(ctx context.Context, listID string) (ItemsView, error) {
	var v ItemsView
	var opErr error
	err := s.do(ctx, func() {
		if opErr = s.openList(listID); opErr != nil {
			return
		}
		v = s.itemsView(listID)
	})
	if err != nil {
		return v, err
	}
	return v, opErr
}

// SetItemIntent replaces the item view intent for listID.
func (s *Session) SetItemIntent(ctx context.Context, listID string, intent projection.Intent) (ItemsView, error) {
	var v ItemsView
	var opErr error
	err := s.do(ctx, func() {
		if opErr = s.openList(listID); opErr != nil {
			return
		}
		s.itemIntents[listID] = intent
		v = s.itemsView(listID)
		s.broadcast(Update{Kind: UpdateItems, ListID: listID, Items: &v})
	})
	if err != nil {
		return v, err
	}
	return v, opErr
}

// Listen registers for updates until ctx is done or the session closes.
// When the session closes, updates already queued are delivered before the
// channel is closed. A listener that falls behind only sees the latest
// projection of each view, but never misses an event.
func (s *Session) Listen(ctx context.Context) (<-chan Update, error) {
	l := newListener()
	var id int
	err := s.do(ctx, func() {
		id = s.nextListener
		s.nextListener++
		s.listeners[id] = l
	})
	if err != nil {
		return nil, err
	}
	go l.run(ctx)

	s.listening.Add(1)
	go func() {
		defer s.listening.Add(-1)
		defer s.touch()
		select {
		case <-ctx.Done():
			s.post(func() { delete(s.listeners, id) })
		case <-s.done:
		}
	}()
	return l.out, nil
}

func (s *Session) broadcast(u Update) {
	for _, l := range s.listeners {
		l.push(u)
	}
}
