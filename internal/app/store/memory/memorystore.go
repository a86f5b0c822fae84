// internal/app/store/memory/memorystore.go
package memorystore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/quicklist/internal/app/system/docstore"
	"github.com/dalemusser/quicklist/internal/domain/models"
	"github.com/google/uuid"
)

// Store is an in-memory docstore.Store. Snapshots are delivered to each
// subscriber on its own goroutine, in the order the writes were applied.
//
// Store is the collaborator used by engine tests and by the "memory"
// docstore mode in development.
type Store struct {
	mu      sync.Mutex
	docs    map[docstore.Path]*entry
	seq     int64
	subs    map[int]*subscription
	nextSub int
	atomic  bool
	fail    func(op docstore.Op) error
	applied []docstore.Op
}

type entry struct {
	fields docstore.Fields
	seq    int64
}

// New returns an empty store that applies batches atomically.
func New() *Store {
	return &Store{
		docs:   make(map[docstore.Path]*entry),
		subs:   make(map[int]*subscription),
		atomic: true,
	}
}

// SetAtomicBatches controls whether Batch is supported. When false, Batch
// returns docstore.ErrBatchUnsupported without applying anything.
func (s *Store) SetAtomicBatches(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.atomic = on
}

// FailWith installs a hook consulted before every write operation (single
// or batched). A non-nil return rejects that operation. Pass nil to clear.
func (s *Store) FailWith(fn func(op docstore.Op) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fn
}

// Applied returns every operation applied so far, in order.
func (s *Store) Applied() []docstore.Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]docstore.Op, len(s.applied))
	copy(out, s.applied)
	return out
}

// Get returns a copy of the document at p.
func (s *Store) Get(p docstore.Path) (docstore.Fields, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[p]
	if !ok {
		return nil, false
	}
	return copyFields(e.fields), true
}

// NewID returns a fresh document id.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// Subscribe registers fn for q and immediately queues the current snapshot.
func (s *Store) Subscribe(ctx context.Context, q docstore.Query, fn func(docstore.Snapshot)) (docstore.Subscription, error) {
	loc, err := q.Collection.Resolve()
	if err != nil {
		return nil, err
	}
	if !loc.IsCollection() {
		return nil, docstore.ErrBadPath
	}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	sub := newSubscription(q, fn, func() { s.unsubscribe(id) })
	s.subs[id] = sub
	sub.push(docstore.Snapshot{Docs: s.queryLocked(q)})
	s.mu.Unlock()

	go sub.run()
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

func (s *Store) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// InjectError delivers a failed snapshot to every subscription on collection.
func (s *Store) InjectError(collection docstore.Path, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.q.Collection == collection {
			sub.push(docstore.Snapshot{Err: err})
		}
	}
}

// Query returns the documents matching q.
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc, err := q.Collection.Resolve()
	if err != nil {
		return nil, err
	}
	if !loc.IsCollection() {
		return nil, docstore.ErrBadPath
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(q), nil
}

// Set creates or replaces the document at p.
func (s *Store) Set(ctx context.Context, p docstore.Path, f docstore.Fields) error {
	return s.write(ctx, []docstore.Op{docstore.SetOp(p, f)})
}

// Update writes fields of an existing document.
func (s *Store) Update(ctx context.Context, p docstore.Path, f docstore.Fields) error {
	return s.write(ctx, []docstore.Op{docstore.UpdateOp(p, f)})
}

// Delete removes the document at p.
func (s *Store) Delete(ctx context.Context, p docstore.Path) error {
	return s.write(ctx, []docstore.Op{docstore.DeleteOp(p)})
}

// Batch applies ops all-or-nothing.
func (s *Store) Batch(ctx context.Context, ops []docstore.Op) error {
	s.mu.Lock()
	atomic := s.atomic
	s.mu.Unlock()
	if !atomic {
		return docstore.ErrBatchUnsupported
	}
	return s.write(ctx, ops)
}

func (s *Store) write(ctx context.Context, ops []docstore.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything first so a rejected op leaves the store untouched.
	for _, op := range ops {
		loc, err := op.Path.Resolve()
		if err != nil {
			return err
		}
		if loc.IsCollection() {
			return docstore.ErrBadPath
		}
		if s.fail != nil {
			if err := s.fail(op); err != nil {
				return err
			}
		}
		if op.Kind == docstore.OpUpdate {
			if _, ok := s.docs[op.Path]; !ok {
				return docstore.ErrNotFound
			}
		}
	}

	touched := make(map[docstore.Path]bool)
	for _, op := range ops {
		s.applyLocked(op)
		s.applied = append(s.applied, op)
		touched[op.Path.Parent()] = true
	}

	for _, sub := range s.subs {
		if touched[sub.q.Collection] {
			sub.push(docstore.Snapshot{Docs: s.queryLocked(sub.q)})
		}
	}
	return nil
}

func (s *Store) applyLocked(op docstore.Op) {
	switch op.Kind {
	case docstore.OpSet:
		s.seq++
		seq := s.seq
		if prev, ok := s.docs[op.Path]; ok {
			seq = prev.seq
		}
		s.docs[op.Path] = &entry{fields: mergeFields(nil, op.Fields), seq: seq}
	case docstore.OpUpdate:
		e := s.docs[op.Path]
		e.fields = mergeFields(e.fields, op.Fields)
	case docstore.OpDelete:
		delete(s.docs, op.Path)
	}
}

func (s *Store) queryLocked(q docstore.Query) []docstore.Document {
	var docs []docstore.Document
	var seqs []int64
	for p, e := range s.docs {
		if p.Parent() != q.Collection {
			continue
		}
		if q.Member != "" && !containsString(e.fields[models.FieldMembers], q.Member) {
			continue
		}
		if !matches(e.fields, q.Where) {
			continue
		}
		docs = append(docs, docstore.Document{ID: p.DocID(), Path: p, Fields: copyFields(e.fields)})
		seqs = append(seqs, e.seq)
	}

	idx := make([]int, len(docs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ta := createdAt(docs[idx[a]].Fields)
		tb := createdAt(docs[idx[b]].Fields)
		if !ta.Equal(tb) {
			if q.Descending {
				return ta.After(tb)
			}
			return ta.Before(tb)
		}
		if q.Descending {
			return seqs[idx[a]] > seqs[idx[b]]
		}
		return seqs[idx[a]] < seqs[idx[b]]
	})

	out := make([]docstore.Document, 0, len(docs))
	for _, i := range idx {
		out = append(out, docs[i])
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

func createdAt(f docstore.Fields) time.Time {
	t, _ := f[models.FieldCreatedAt].(time.Time)
	return t
}

func matches(f, where docstore.Fields) bool {
	for k, v := range where {
		if f[k] != v {
			return false
		}
	}
	return true
}

func containsString(v any, want string) bool {
	ss, _ := v.([]string)
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

// mergeFields returns base with f applied. Union values extend string
// arrays without duplicates; slices are copied so callers cannot alias
// stored state.
func mergeFields(base, f docstore.Fields) docstore.Fields {
	out := copyFields(base)
	if out == nil {
		out = docstore.Fields{}
	}
	for k, v := range f {
		switch val := v.(type) {
		case docstore.UnionValue:
			cur, _ := out[k].([]string)
			merged := append([]string(nil), cur...)
			for _, add := range val.Values {
				if !containsString(merged, add) {
					merged = append(merged, add)
				}
			}
			out[k] = merged
		case []string:
			out[k] = append([]string(nil), val...)
		default:
			out[k] = v
		}
	}
	return out
}

func copyFields(f docstore.Fields) docstore.Fields {
	if f == nil {
		return nil
	}
	out := make(docstore.Fields, len(f))
	for k, v := range f {
		if ss, ok := v.([]string); ok {
			v = append([]string(nil), ss...)
		}
		out[k] = v
	}
	return out
}
