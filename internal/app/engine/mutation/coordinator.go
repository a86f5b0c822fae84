// Package mutation turns user intents into outward writes against the
// remote document store. Writes are queued and applied in issue order on a
// background worker; callers never wait for them. The raw tables are not
// touched here; the next snapshot carries the definitive state.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/quicklist/internal/app/system/docstore"
	"github.com/dalemusser/quicklist/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reader gives read access to the current raw tables.
type Reader interface {
	List(listID string) (models.List, bool)
	Item(listID, itemID string) (models.Item, bool)
}

// Result is the outcome of one write, delivered asynchronously.
type Result struct {
	Op   string
	Path docstore.Path
	Err  error
}

// Options tune a Coordinator. Zero values select defaults.
type Options struct {
	// Timeout bounds each queued write. Default 10s.
	Timeout time.Duration
	// Now is the wall clock used for createdAt and token timestamps.
	Now func() time.Time
	// OnResult is called on the worker goroutine after every write.
	OnResult func(Result)
	// DeleteConcurrency caps parallel item deletes in the staged plan.
	DeleteConcurrency int
}

type job struct {
	op   string
	path docstore.Path
	run  func(ctx context.Context) error
}

// Coordinator issues writes on behalf of one user.
type Coordinator struct {
	remote docstore.Store
	reader Reader
	userID string
	log    *zap.Logger

	timeout     time.Duration
	now         func() time.Time
	onResult    func(Result)
	concurrency int

	mu      sync.Mutex
	queue   []job
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
	pending sync.WaitGroup
}

// New starts a Coordinator. Call Close to stop its worker.
func New(remote docstore.Store, reader Reader, userID string, logger *zap.Logger, opts Options) *Coordinator {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DeleteConcurrency <= 0 {
		opts.DeleteConcurrency = 8
	}
	c := &Coordinator{
		remote:      remote,
		reader:      reader,
		userID:      userID,
		log:         logger,
		timeout:     opts.Timeout,
		now:         opts.Now,
		onResult:    opts.OnResult,
		concurrency: opts.DeleteConcurrency,
		wake:        make(chan struct{}, 1),
		stopped:     make(chan struct{}),
	}
	go c.run()
	return c
}

// Wait blocks until every write submitted so far has completed.
func (c *Coordinator) Wait() {
	c.pending.Wait()
}

// Close drains queued writes and stops the worker.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.signal()
	<-c.stopped
}

func (c *Coordinator) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Coordinator) submit(op string, p docstore.Path, run func(ctx context.Context) error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.log.Warn("write dropped after close", zap.String("op", op), zap.String("path", string(p)))
		return
	}
	c.pending.Add(1)
	c.queue = append(c.queue, job{op: op, path: p, run: run})
	c.mu.Unlock()
	c.signal()
}

func (c *Coordinator) run() {
	defer close(c.stopped)
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			<-c.wake
			continue
		}
		j := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		c.execute(j)
		c.pending.Done()
	}
}

func (c *Coordinator) execute(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	err := j.run(ctx)
	if err != nil && !errors.Is(err, ErrPartialDelete) {
		err = fmt.Errorf("%s %s: %w: %w", j.op, j.path, ErrWriteFailed, err)
	}
	if err != nil {
		c.log.Warn("remote write failed",
			zap.String("op", j.op),
			zap.String("path", string(j.path)),
			zap.String("user_id", c.userID),
			zap.Error(err))
	}
	if c.onResult != nil {
		c.onResult(Result{Op: j.op, Path: j.path, Err: err})
	}
}

func (c *Coordinator) update(op string, p docstore.Path, f docstore.Fields) {
	c.submit(op, p, func(ctx context.Context) error {
		return c.remote.Update(ctx, p, f)
	})
}

func (c *Coordinator) token(kind UndoKind, p docstore.Path, f docstore.Fields) UndoToken {
	return UndoToken{ID: uuid.NewString(), Kind: kind, Path: p, Fields: f, IssuedAt: c.now()}
}

// ToggleChecked writes checked unconditionally.
func (c *Coordinator) ToggleChecked(listID, itemID string, checked bool) {
	c.update("toggle_checked", docstore.ItemPath(listID, itemID), docstore.Fields{models.FieldChecked: checked})
}

// FlipChecked writes the negation of the item's current checked state.
func (c *Coordinator) FlipChecked(listID, itemID string) (bool, error) {
	it, ok := c.reader.Item(listID, itemID)
	if !ok {
		return false, ErrNotFound
	}
	c.ToggleChecked(listID, itemID, !it.Checked)
	return !it.Checked, nil
}

// SetQuantity writes q clamped to the quantity floor and returns the value
// written.
func (c *Coordinator) SetQuantity(listID, itemID string, q int) int {
	q = models.ClampQuantity(q)
	c.update("set_quantity", docstore.ItemPath(listID, itemID), docstore.Fields{models.FieldQuantity: q})
	return q
}

// AdjustQuantity adds delta to the item's current quantity.
func (c *Coordinator) AdjustQuantity(listID, itemID string, delta int) (int, error) {
	it, ok := c.reader.Item(listID, itemID)
	if !ok {
		return 0, ErrNotFound
	}
	return c.SetQuantity(listID, itemID, it.Quantity+delta), nil
}

// TogglePinned writes the negation of the list's pinned flag.
func (c *Coordinator) TogglePinned(listID string) (bool, error) {
	l, ok := c.reader.List(listID)
	if !ok {
		return false, ErrNotFound
	}
	c.update("toggle_pinned", docstore.ListPath(listID), docstore.Fields{models.FieldPinned: !l.Pinned})
	return !l.Pinned, nil
}

// ToggleArchived writes the negation of the list's archived flag and
// returns a token that restores the prior value. Undo is last-write-wins.
func (c *Coordinator) ToggleArchived(listID string) (UndoToken, error) {
	l, ok := c.reader.List(listID)
	if !ok {
		return UndoToken{}, ErrNotFound
	}
	p := docstore.ListPath(listID)
	c.update("toggle_archived", p, docstore.Fields{models.FieldArchived: !l.Archived})
	return c.token(UndoRestoreFields, p, docstore.Fields{models.FieldArchived: l.Archived}), nil
}

// SetColor writes the list color verbatim.
func (c *Coordinator) SetColor(listID, color string) {
	c.update("set_color", docstore.ListPath(listID), docstore.Fields{models.FieldColor: color})
}

// SetEmoji writes the list emoji verbatim.
func (c *Coordinator) SetEmoji(listID, emoji string) {
	c.update("set_emoji", docstore.ListPath(listID), docstore.Fields{models.FieldEmoji: emoji})
}

// CreateList writes a new list owned by the coordinator's user and returns
// its id.
func (c *Coordinator) CreateList(name string) string {
	id := c.remote.NewID()
	l := models.NewList(id, c.userID, name, c.now())
	p := docstore.ListPath(id)
	f := docstore.Fields(l.Fields())
	c.submit("create_list", p, func(ctx context.Context) error {
		return c.remote.Set(ctx, p, f)
	})
	return id
}

// CreateItem writes a new item. It reports false, writing nothing, when
// the trimmed text is empty.
func (c *Coordinator) CreateItem(listID, text string, quantity int) (string, bool) {
	id := c.remote.NewID()
	it, ok := models.NewItem(id, listID, text, c.userID, quantity, c.now())
	if !ok {
		return "", false
	}
	p := docstore.ItemPath(listID, id)
	f := docstore.Fields(it.Fields())
	c.submit("create_item", p, func(ctx context.Context) error {
		return c.remote.Set(ctx, p, f)
	})
	return id, true
}

// DeleteItem captures the item's full record, deletes it, and returns a
// token that recreates it under the same id.
func (c *Coordinator) DeleteItem(listID, itemID string) (UndoToken, error) {
	it, ok := c.reader.Item(listID, itemID)
	if !ok {
		return UndoToken{}, ErrNotFound
	}
	p := docstore.ItemPath(listID, itemID)
	c.submit("delete_item", p, func(ctx context.Context) error {
		return c.remote.Delete(ctx, p)
	})
	return c.token(UndoRecreate, p, docstore.Fields(it.Fields())), nil
}

// Undo re-issues the prior state captured in t.
func (c *Coordinator) Undo(t UndoToken) error {
	switch t.Kind {
	case UndoRestoreFields:
		c.update("undo_restore", t.Path, t.Fields)
	case UndoRecreate:
		p, f := t.Path, t.Fields
		c.submit("undo_recreate", p, func(ctx context.Context) error {
			return c.remote.Set(ctx, p, f)
		})
	default:
		return ErrUnknownUndo
	}
	return nil
}

// DeleteList removes the list and every item in it. The store's atomic
// batch is used when available; otherwise items are deleted first, their
// absence verified, and only then the list itself.
func (c *Coordinator) DeleteList(listID string) {
	p := docstore.ListPath(listID)
	c.submit("delete_list", p, func(ctx context.Context) error {
		return c.deleteList(ctx, listID)
	})
}

func (c *Coordinator) deleteList(ctx context.Context, listID string) error {
	items, err := c.remote.Query(ctx, docstore.Query{Collection: docstore.ItemsPath(listID)})
	if err != nil {
		return fmt.Errorf("query items: %w", err)
	}

	ops := make([]docstore.Op, 0, len(items)+1)
	for _, d := range items {
		ops = append(ops, docstore.DeleteOp(d.Path))
	}
	ops = append(ops, docstore.DeleteOp(docstore.ListPath(listID)))

	err = c.remote.Batch(ctx, ops)
	if !errors.Is(err, docstore.ErrBatchUnsupported) {
		return err
	}

	c.log.Debug("atomic batch unsupported, staging list delete",
		zap.String("list_id", listID), zap.Int("items", len(items)))
	return c.stagedDeleteList(ctx, listID, items)
}

func (c *Coordinator) stagedDeleteList(ctx context.Context, listID string, items []docstore.Document) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, d := range items {
		g.Go(func() error {
			return c.remote.Delete(gctx, d.Path)
		})
	}
	if err := g.Wait(); err != nil {
		remaining, _ := c.remainingItems(ctx, listID)
		return &BatchDeleteError{ListID: listID, Stage: StageItems, Remaining: remaining, Err: err}
	}

	remaining, err := c.remainingItems(ctx, listID)
	if err != nil {
		return &BatchDeleteError{ListID: listID, Stage: StageVerify, Err: err}
	}
	if len(remaining) > 0 {
		return &BatchDeleteError{ListID: listID, Stage: StageVerify, Remaining: remaining, Err: errItemsRemain}
	}

	if err := c.remote.Delete(ctx, docstore.ListPath(listID)); err != nil {
		return &BatchDeleteError{ListID: listID, Stage: StageParent, Err: err}
	}
	return nil
}

func (c *Coordinator) remainingItems(ctx context.Context, listID string) ([]string, error) {
	docs, err := c.remote.Query(ctx, docstore.Query{Collection: docstore.ItemsPath(listID)})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}
