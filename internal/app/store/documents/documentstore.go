// internal/app/store/documents/documentstore.go
package documentstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/quicklist/internal/app/system/docstore"
	"github.com/dalemusser/quicklist/internal/app/system/txn"
	"github.com/dalemusser/quicklist/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names.
const (
	ListsCollection = "lists"
	ItemsCollection = "items"
)

// Options tune a Store. Zero values select defaults.
type Options struct {
	// PollInterval is used when the server cannot open change streams.
	PollInterval time.Duration
}

// Store implements docstore.Store on MongoDB. Lists live in "lists"; items
// live in "items" keyed by their own id and tagged with list_id.
type Store struct {
	db    *mongo.Database
	lists *mongo.Collection
	items *mongo.Collection
	log   *zap.Logger
	poll  time.Duration
}

func New(db *mongo.Database, logger *zap.Logger, opts Options) *Store {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Store{
		db:    db,
		lists: db.Collection(ListsCollection),
		items: db.Collection(ItemsCollection),
		log:   logger,
		poll:  opts.PollInterval,
	}
}

// NewID returns a new ObjectID in hex form.
func (s *Store) NewID() string {
	return primitive.NewObjectID().Hex()
}

// target resolves a document path to its collection and filter.
func (s *Store) target(p docstore.Path) (*mongo.Collection, bson.M, docstore.Location, error) {
	loc, err := p.Resolve()
	if err != nil {
		return nil, nil, loc, err
	}
	switch loc.Kind {
	case docstore.KindList:
		return s.lists, bson.M{"_id": loc.ListID}, loc, nil
	case docstore.KindItem:
		return s.items, bson.M{"_id": loc.ItemID, models.FieldListID: loc.ListID}, loc, nil
	default:
		return nil, nil, loc, fmt.Errorf("%w: %q is a collection", docstore.ErrBadPath, p)
	}
}

// collection resolves a collection path to its collection and base filter.
func (s *Store) collection(q docstore.Query) (*mongo.Collection, bson.M, docstore.Location, error) {
	loc, err := q.Collection.Resolve()
	if err != nil {
		return nil, nil, loc, err
	}
	filter := bson.M{}
	for k, v := range q.Where {
		filter[k] = v
	}
	switch loc.Kind {
	case docstore.KindLists:
		if q.Member != "" {
			filter[models.FieldMembers] = q.Member
		}
		return s.lists, filter, loc, nil
	case docstore.KindItems:
		filter[models.FieldListID] = loc.ListID
		return s.items, filter, loc, nil
	default:
		return nil, nil, loc, fmt.Errorf("%w: %q is a document", docstore.ErrBadPath, q.Collection)
	}
}

// Query returns the documents matching q ordered by created_at.
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	c, filter, loc, err := s.collection(q)
	if err != nil {
		return nil, err
	}

	dir := 1
	if q.Descending {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: models.FieldCreatedAt, Value: dir}, {Key: "_id", Value: dir}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []docstore.Document
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		docs = append(docs, toDocument(loc, m))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func toDocument(loc docstore.Location, m bson.M) docstore.Document {
	id, _ := m["_id"].(string)
	delete(m, "_id")
	var p docstore.Path
	if loc.Kind == docstore.KindLists {
		p = docstore.ListPath(id)
	} else {
		p = docstore.ItemPath(loc.ListID, id)
	}
	return docstore.Document{ID: id, Path: p, Fields: docstore.Fields(m)}
}

// Set replaces (or creates) the document at p.
func (s *Store) Set(ctx context.Context, p docstore.Path, f docstore.Fields) error {
	c, filter, loc, err := s.target(p)
	if err != nil {
		return err
	}
	_, err = c.ReplaceOne(ctx, filter, replacement(loc, f), options.Replace().SetUpsert(true))
	return err
}

func replacement(loc docstore.Location, f docstore.Fields) bson.M {
	doc := bson.M{}
	for k, v := range f {
		if u, ok := v.(docstore.UnionValue); ok {
			v = u.Values
		}
		doc[k] = v
	}
	if loc.Kind == docstore.KindItem {
		doc[models.FieldListID] = loc.ListID
	}
	return doc
}

// Update writes fields of an existing document. Union values become
// $addToSet so concurrent invites never drop each other.
func (s *Store) Update(ctx context.Context, p docstore.Path, f docstore.Fields) error {
	c, filter, _, err := s.target(p)
	if err != nil {
		return err
	}
	res, err := c.UpdateOne(ctx, filter, updateDoc(f))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func updateDoc(f docstore.Fields) bson.M {
	set := bson.M{}
	add := bson.M{}
	for k, v := range f {
		if u, ok := v.(docstore.UnionValue); ok {
			add[k] = bson.M{"$each": u.Values}
			continue
		}
		set[k] = v
	}
	upd := bson.M{}
	if len(set) > 0 {
		upd["$set"] = set
	}
	if len(add) > 0 {
		upd["$addToSet"] = add
	}
	return upd
}

// Delete removes the document at p. A missing document is not an error.
func (s *Store) Delete(ctx context.Context, p docstore.Path) error {
	c, filter, _, err := s.target(p)
	if err != nil {
		return err
	}
	_, err = c.DeleteOne(ctx, filter)
	return err
}

// Batch applies ops in one transaction. On deployments without
// transactions it returns docstore.ErrBatchUnsupported having applied
// nothing.
func (s *Store) Batch(ctx context.Context, ops []docstore.Op) error {
	for _, op := range ops {
		if _, _, _, err := s.target(op.Path); err != nil {
			return err
		}
	}

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		for _, op := range ops {
			if err := s.apply(ctx, op); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, txn.ErrNotSupported) {
		return fmt.Errorf("%w: %w", docstore.ErrBatchUnsupported, err)
	}
	return err
}

func (s *Store) apply(ctx context.Context, op docstore.Op) error {
	switch op.Kind {
	case docstore.OpSet:
		return s.Set(ctx, op.Path, op.Fields)
	case docstore.OpUpdate:
		return s.Update(ctx, op.Path, op.Fields)
	case docstore.OpDelete:
		return s.Delete(ctx, op.Path)
	default:
		return fmt.Errorf("unknown op kind %v", op.Kind)
	}
}
