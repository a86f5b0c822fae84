// Package ingest turns full-collection snapshots into keyed raw tables.
//
// Each snapshot replaces the table for its collection wholesale; nothing is
// diffed or patched. Tables are immutable once built, so readers may keep a
// reference across later ingests.
package ingest

import (
	"errors"
)

// ErrEmptyCollectionID is returned when a snapshot names no collection.
var ErrEmptyCollectionID = errors.New("ingest: empty collection id")

// Record is anything keyed by a stable id.
type Record interface {
	RecordID() string
}

// Table maps record id to the latest full record and remembers the
// snapshot's arrival order.
type Table[R Record] struct {
	order []R
	index map[string]int
}

// NewTable builds a table from one snapshot. When an id appears more than
// once the last occurrence wins, both for its value and its position.
func NewTable[R Record](records []R) *Table[R] {
	last := make(map[string]int, len(records))
	for i, r := range records {
		last[r.RecordID()] = i
	}
	t := &Table[R]{
		order: make([]R, 0, len(last)),
		index: make(map[string]int, len(last)),
	}
	for i, r := range records {
		id := r.RecordID()
		if last[id] != i {
			continue
		}
		t.index[id] = len(t.order)
		t.order = append(t.order, r)
	}
	return t
}

// Len returns the number of distinct records.
func (t *Table[R]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Get returns the record with the given id.
func (t *Table[R]) Get(id string) (R, bool) {
	var zero R
	if t == nil {
		return zero, false
	}
	i, ok := t.index[id]
	if !ok {
		return zero, false
	}
	return t.order[i], true
}

// Records returns the records in arrival order. The slice is a copy.
func (t *Table[R]) Records() []R {
	if t == nil {
		return nil
	}
	out := make([]R, len(t.order))
	copy(out, t.order)
	return out
}

// Ingestor owns the raw tables of a set of collections. It is not safe for
// concurrent use; the view session calls it from its event loop only.
type Ingestor[R Record] struct {
	tables map[string]*Table[R]
}

// New returns an empty Ingestor.
func New[R Record]() *Ingestor[R] {
	return &Ingestor[R]{tables: make(map[string]*Table[R])}
}

// Ingest replaces the table for collectionID with records. An empty record
// set is valid and means the collection has no records yet.
func (in *Ingestor[R]) Ingest(collectionID string, records []R) error {
	if collectionID == "" {
		return ErrEmptyCollectionID
	}
	in.tables[collectionID] = NewTable(records)
	return nil
}

// Table returns the current table for collectionID, or an empty table when
// nothing has been ingested for it.
func (in *Ingestor[R]) Table(collectionID string) *Table[R] {
	if t, ok := in.tables[collectionID]; ok {
		return t
	}
	return NewTable[R](nil)
}

// Has reports whether at least one snapshot was ingested for collectionID.
func (in *Ingestor[R]) Has(collectionID string) bool {
	_, ok := in.tables[collectionID]
	return ok
}

// Drop forgets the table for collectionID.
func (in *Ingestor[R]) Drop(collectionID string) {
	delete(in.tables, collectionID)
}
