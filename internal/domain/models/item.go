// internal/domain/models/item.go
package models

import (
	"strconv"
	"strings"
	"time"
)

// Field names of an item document. They double as bson keys.
const (
	FieldListID   = "list_id"
	FieldText     = "text"
	FieldChecked  = "checked"
	FieldQuantity = "quantity"
)

// MinQuantity is the floor for Item.Quantity.
const MinQuantity = 1

// Item is one entry in a list's items subcollection.
type Item struct {
	ID        string    `bson:"_id" json:"id"`
	ListID    string    `bson:"list_id" json:"list_id"`
	Text      string    `bson:"text" json:"text"`
	CreatedBy string    `bson:"created_by" json:"created_by"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	Checked   bool      `bson:"checked" json:"checked"`
	Quantity  int       `bson:"quantity" json:"quantity"`
}

// NewItem builds an unchecked item. It reports false when text is empty
// after trimming. The quantity is clamped to MinQuantity.
func NewItem(id, listID, text, createdBy string, quantity int, now time.Time) (Item, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Item{}, false
	}
	return Item{
		ID:        id,
		ListID:    listID,
		Text:      text,
		CreatedBy: createdBy,
		CreatedAt: now,
		Quantity:  ClampQuantity(quantity),
	}, true
}

// ClampQuantity raises any value below MinQuantity to MinQuantity.
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	return q
}

// ParseQuantity reads a user-entered quantity. Blank or unparsable input
// yields MinQuantity.
func ParseQuantity(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return MinQuantity
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return MinQuantity
	}
	return ClampQuantity(n)
}

func (it Item) RecordID() string { return it.ID }
func (it Item) SortText() string { return it.Text }
func (it Item) IsPinned() bool   { return false }
func (it Item) IsArchived() bool { return false }
func (it Item) IsChecked() bool  { return it.Checked }

// Fields encodes the item as a document field map (without the id).
func (it Item) Fields() map[string]any {
	return map[string]any{
		FieldListID:    it.ListID,
		FieldText:      it.Text,
		FieldCreatedBy: it.CreatedBy,
		FieldCreatedAt: it.CreatedAt,
		FieldChecked:   it.Checked,
		FieldQuantity:  ClampQuantity(it.Quantity),
	}
}

// ItemFromFields decodes a document field map. listID comes from the
// document path; a stored quantity below the floor decodes as MinQuantity.
func ItemFromFields(id, listID string, f map[string]any) Item {
	q, ok := intField(f, FieldQuantity)
	if !ok {
		q = MinQuantity
	}
	return Item{
		ID:        id,
		ListID:    listID,
		Text:      stringField(f, FieldText),
		CreatedBy: stringField(f, FieldCreatedBy),
		CreatedAt: timeField(f, FieldCreatedAt),
		Checked:   boolField(f, FieldChecked),
		Quantity:  ClampQuantity(q),
	}
}
