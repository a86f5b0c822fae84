// Package viewsession is the single UI-facing session for one signed-in
// user. A Session runs one event loop goroutine that exclusively owns the
// raw tables, the view intents, the completion detector and the issued undo
// tokens. Snapshot deliveries, user intents and write results all arrive as
// messages on that loop, so none of that state needs locking.
package viewsession

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/quicklist/internal/app/engine/completion"
	"github.com/dalemusser/quicklist/internal/app/engine/ingest"
	"github.com/dalemusser/quicklist/internal/app/engine/mutation"
	"github.com/dalemusser/quicklist/internal/app/engine/projection"
	"github.com/dalemusser/quicklist/internal/app/engine/sharing"
	"github.com/dalemusser/quicklist/internal/app/system/docstore"
	"github.com/dalemusser/quicklist/internal/domain/models"
	"go.uber.org/zap"
)

var (
	ErrClosed       = errors.New("view session closed")
	ErrListNotFound = errors.New("list not found")
	ErrItemNotFound = errors.New("item not found")
	ErrBlankText    = errors.New("item text is required")
	ErrValueMissing = errors.New("value is required")
	ErrUndoNotFound = errors.New("undo token not found")
	ErrUndoExpired  = errors.New("undo token expired")
)

// Config tunes a Session. Zero values select defaults.
type Config struct {
	// UndoWindow is how long an issued undo token stays redeemable.
	UndoWindow time.Duration
	// WriteTimeout bounds each remote write.
	WriteTimeout time.Duration
	// Now is the session clock.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.UndoWindow <= 0 {
		c.UndoWindow = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Session is one user's view over their lists.
type Session struct {
	userID string
	remote docstore.Store
	log    *zap.Logger
	cfg    Config

	cmds      chan func()
	done      chan struct{}
	stopped   chan struct{}
	ready     chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once

	lastActive atomic.Int64
	listening  atomic.Int32

	coord  *mutation.Coordinator
	sharer *sharing.Resolver

	// Owned by the loop goroutine.
	lists        *ingest.Ingestor[models.List]
	items        *ingest.Ingestor[models.Item]
	listIntent   projection.Intent
	itemIntents  map[string]projection.Intent
	detector     *completion.Detector
	listsSub     docstore.Subscription
	itemSubs     map[string]*itemSub
	subErrs      map[string]error
	undo         map[string]mutation.UndoToken
	listeners    map[int]*listener
	nextListener int
	isReady      bool
	nextGen      int
}

type itemSub struct {
	gen int
	sub docstore.Subscription
}

// Start subscribes to the user's lists and starts the session loop.
func Start(remote docstore.Store, dir sharing.Directory, userID string, logger *zap.Logger, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	s := &Session{
		userID:      userID,
		remote:      remote,
		log:         logger.With(zap.String("user_id", userID)),
		cfg:         cfg,
		cmds:        make(chan func()),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		ready:       make(chan struct{}),
		lists:       ingest.New[models.List](),
		items:       ingest.New[models.Item](),
		itemIntents: make(map[string]projection.Intent),
		detector:    completion.New(),
		itemSubs:    make(map[string]*itemSub),
		subErrs:     make(map[string]error),
		undo:        make(map[string]mutation.UndoToken),
		listeners:   make(map[int]*listener),
	}
	s.touch()

	s.coord = mutation.New(remote, tableReader{s}, userID, s.log, mutation.Options{
		Timeout:  cfg.WriteTimeout,
		Now:      cfg.Now,
		OnResult: s.onWriteResult,
	})
	s.sharer = sharing.New(dir, remote, s.log)

	sub, err := remote.Subscribe(context.Background(), docstore.Query{
		Collection: docstore.ListsPath,
		Member:     userID,
		Descending: true,
	}, func(snap docstore.Snapshot) {
		s.post(func() { s.applyLists(snap) })
	})
	if err != nil {
		s.coord.Close()
		return nil, err
	}
	s.listsSub = sub

	go s.loop()
	s.log.Info("view session started")
	return s, nil
}

// UserID returns the session owner.
func (s *Session) UserID() string { return s.userID }

// Ready blocks until the first lists snapshot has been applied. It
// returns ErrClosed if the session ends first.
func (s *Session) Ready(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the session: subscriptions are closed, listeners receive
// what is already queued for them and are released, and queued writes are
// drained. Intents die with the session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.stopped
		s.coord.Close()
		s.log.Info("view session closed")
	})
}

// Closed reports whether the session has ended, either through Close or
// because its lists subscription failed.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// IdleSince returns the time of the last request, and false while a
// listener is attached.
func (s *Session) IdleSince() (time.Time, bool) {
	if s.listening.Load() > 0 {
		return time.Time{}, false
	}
	return time.Unix(0, s.lastActive.Load()), true
}

// cancel stops the loop without waiting. The loop calls it itself when
// the lists subscription fails.
func (s *Session) cancel() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Session) touch() {
	s.lastActive.Store(s.cfg.Now().UnixNano())
}

func (s *Session) loop() {
	defer close(s.stopped)

	purge := time.NewTicker(s.cfg.UndoWindow)
	defer purge.Stop()

	for {
		select {
		case fn := <-s.cmds:
			fn()
		case <-purge.C:
			s.purgeUndo()
		case <-s.done:
			s.shutdown()
			return
		}
	}
}

func (s *Session) shutdown() {
	if s.listsSub != nil {
		s.listsSub.Close()
	}
	for id, is := range s.itemSubs {
		is.sub.Close()
		delete(s.itemSubs, id)
	}
	for id, l := range s.listeners {
		l.finish()
		delete(s.listeners, id)
	}
}

// post hands fn to the loop without waiting for it to run. It gives up
// once the session is closed.
func (s *Session) post(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.done:
	}
}

// do runs fn on the loop and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	s.touch()
	finished := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(finished) }:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// tableReader exposes the raw tables to the coordinator. The coordinator is
// only ever invoked from the loop, so reads happen on the loop too.
type tableReader struct{ s *Session }

func (r tableReader) List(listID string) (models.List, bool) {
	return r.s.lists.Table(listsCollection).Get(listID)
}

func (r tableReader) Item(listID, itemID string) (models.Item, bool) {
	return r.s.items.Table(itemsCollection(listID)).Get(itemID)
}

var listsCollection = string(docstore.ListsPath)

func itemsCollection(listID string) string {
	return string(docstore.ItemsPath(listID))
}
