// Package docstore defines the contract between the list engine and the
// remote document store: path addressing, field maps, batched operations and
// full-snapshot subscriptions.
//
// Collections are addressed the way the original Firestore layout does:
//
//	lists                       all lists (filtered by member on subscribe)
//	lists/{listID}              one list document
//	lists/{listID}/items        the items subcollection of a list
//	lists/{listID}/items/{id}   one item document
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Update when the document does not exist.
	// Deleting a missing document is not an error.
	ErrNotFound = errors.New("document not found")
	// ErrBatchUnsupported is returned by Batch when the store cannot apply
	// the operations atomically. Callers must fall back to a staged plan.
	ErrBatchUnsupported = errors.New("atomic batch writes not supported")
)

// Fields is a document body keyed by field name.
type Fields map[string]any

// UnionValue is a field value that adds Values to an array field as a set
// union. Values already present are left alone.
type UnionValue struct {
	Values []string
}

// Union builds a set-union field value.
func Union(values ...string) UnionValue {
	return UnionValue{Values: values}
}

// Document is one record as delivered by the store.
type Document struct {
	ID     string
	Path   Path
	Fields Fields
}

// OpKind is the kind of a batched operation.
type OpKind int

const (
	OpSet OpKind = iota
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is one write in a batch.
type Op struct {
	Kind   OpKind
	Path   Path
	Fields Fields
}

// SetOp replaces (or creates) the document at p.
func SetOp(p Path, f Fields) Op { return Op{Kind: OpSet, Path: p, Fields: f} }

// UpdateOp writes the given fields of an existing document.
func UpdateOp(p Path, f Fields) Op { return Op{Kind: OpUpdate, Path: p, Fields: f} }

// DeleteOp removes the document at p.
func DeleteOp(p Path) Op { return Op{Kind: OpDelete, Path: p} }

// Query selects the documents of a collection.
type Query struct {
	// Collection is a collection path (ListsPath or ItemsPath).
	Collection Path
	// Member restricts lists to those whose members array contains it.
	Member string
	// Where holds field equality constraints.
	Where Fields
	// Descending orders by created_at newest first; default is oldest first.
	Descending bool
	// Limit caps the result size when positive.
	Limit int
}

// Snapshot is a complete, authoritative replacement set for a subscribed
// collection. When Err is set the subscription has failed and Docs is empty.
type Snapshot struct {
	Docs []Document
	Err  error
}

// Subscription is a live query. Close stops delivery; it is safe to call
// more than once.
type Subscription interface {
	Close()
}

// Store is the remote document store.
//
// Subscribe delivers snapshots to fn in emission order from a goroutine
// owned by the store. Writes return once the store has accepted or rejected
// them; the engine calls them off its own loop so they never block it.
type Store interface {
	NewID() string
	Subscribe(ctx context.Context, q Query, fn func(Snapshot)) (Subscription, error)
	Query(ctx context.Context, q Query) ([]Document, error)
	Set(ctx context.Context, p Path, f Fields) error
	Update(ctx context.Context, p Path, f Fields) error
	Delete(ctx context.Context, p Path) error
	Batch(ctx context.Context, ops []Op) error
}
