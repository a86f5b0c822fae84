package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/quicklist/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a directory entry with no password.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	u := models.User{
		ID:         primitive.NewObjectID().Hex(),
		Email:      email,
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateList inserts a list owned by ownerID.
func (f *Fixtures) CreateList(ctx context.Context, ownerID, name string) models.List {
	f.t.Helper()

	l := models.NewList(primitive.NewObjectID().Hex(), ownerID, name, time.Now().UTC().Truncate(time.Millisecond))
	doc := l.Fields()
	doc["_id"] = l.ID
	if _, err := f.db.Collection("lists").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create test list: %v", err)
	}
	return l
}

// CreateItem inserts an unchecked item into listID.
func (f *Fixtures) CreateItem(ctx context.Context, listID, itemText string) models.Item {
	f.t.Helper()

	it, ok := models.NewItem(primitive.NewObjectID().Hex(), listID, itemText, "fixture", 1, time.Now().UTC().Truncate(time.Millisecond))
	if !ok {
		f.t.Fatalf("invalid fixture item text %q", itemText)
	}
	doc := it.Fields()
	doc["_id"] = it.ID
	if _, err := f.db.Collection("items").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create test item: %v", err)
	}
	return it
}
