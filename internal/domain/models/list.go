// internal/domain/models/list.go
package models

import (
	"strings"
	"time"
)

// List defaults applied at creation and when decoding incomplete documents.
const (
	DefaultListName  = "Untitled List"
	DefaultListColor = "#16A34A"
	DefaultListEmoji = "✅"
)

// Field names of a list document. They double as bson keys.
const (
	FieldName      = "name"
	FieldCreatedBy = "created_by"
	FieldMembers   = "members"
	FieldCreatedAt = "created_at"
	FieldPinned    = "pinned"
	FieldArchived  = "archived"
	FieldColor     = "color"
	FieldEmoji     = "emoji"
)

// List is a shared shopping/todo list.
//
// NOTE:
//   - Members always contains CreatedBy; the set only grows (sharing).
//   - CreatedAt is assigned once by the creator and never recomputed.
//   - Color and Emoji are cosmetic and passed through verbatim, except that
//     an unparsable color decodes as DefaultListColor.
type List struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	CreatedBy string    `bson:"created_by" json:"created_by"`
	Members   []string  `bson:"members" json:"members"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	Pinned    bool      `bson:"pinned" json:"pinned"`
	Archived  bool      `bson:"archived" json:"archived"`
	Color     string    `bson:"color" json:"color"`
	Emoji     string    `bson:"emoji" json:"emoji"`
}

// NewList builds a list owned by ownerID. An empty (after trim) name falls
// back to DefaultListName.
func NewList(id, ownerID, name string, now time.Time) List {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultListName
	}
	return List{
		ID:        id,
		Name:      name,
		CreatedBy: ownerID,
		Members:   []string{ownerID},
		CreatedAt: now,
		Color:     DefaultListColor,
		Emoji:     DefaultListEmoji,
	}
}

// DisplayName is the name shown to users.
func (l List) DisplayName() string {
	if strings.TrimSpace(l.Name) == "" {
		return DefaultListName
	}
	return l.Name
}

// HasMember reports whether id is in the membership set.
func (l List) HasMember(id string) bool {
	for _, m := range l.Members {
		if m == id {
			return true
		}
	}
	return false
}

func (l List) RecordID() string { return l.ID }
func (l List) SortText() string { return l.Name }
func (l List) IsPinned() bool   { return l.Pinned }
func (l List) IsArchived() bool { return l.Archived }

// Fields encodes the list as a document field map (without the id).
func (l List) Fields() map[string]any {
	members := make([]string, len(l.Members))
	copy(members, l.Members)
	return map[string]any{
		FieldName:      l.Name,
		FieldCreatedBy: l.CreatedBy,
		FieldMembers:   members,
		FieldCreatedAt: l.CreatedAt,
		FieldPinned:    l.Pinned,
		FieldArchived:  l.Archived,
		FieldColor:     l.Color,
		FieldEmoji:     l.Emoji,
	}
}

// ListFromFields decodes a document field map, applying defaults for absent
// or malformed values so the result carries no hidden nulls.
func ListFromFields(id string, f map[string]any) List {
	l := List{
		ID:        id,
		Name:      stringField(f, FieldName),
		CreatedBy: stringField(f, FieldCreatedBy),
		Members:   stringsField(f, FieldMembers),
		CreatedAt: timeField(f, FieldCreatedAt),
		Pinned:    boolField(f, FieldPinned),
		Archived:  boolField(f, FieldArchived),
		Color:     NormalizeColor(stringField(f, FieldColor)),
		Emoji:     stringField(f, FieldEmoji),
	}
	if l.Emoji == "" {
		l.Emoji = DefaultListEmoji
	}
	if l.CreatedBy != "" && !l.HasMember(l.CreatedBy) {
		l.Members = append([]string{l.CreatedBy}, l.Members...)
	}
	return l
}

// NormalizeColor returns s when it is a "#RRGGBB" token, else DefaultListColor.
func NormalizeColor(s string) string {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[0] != '#' {
		return DefaultListColor
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return DefaultListColor
		}
	}
	return s
}

// Swatch is one preset color offered by the color picker.
type Swatch struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// ColorPalette is the preset list of list colors.
var ColorPalette = []Swatch{
	{Name: "Green", Hex: "#16A34A"},
	{Name: "Blue", Hex: "#2563EB"},
	{Name: "Purple", Hex: "#7C3AED"},
	{Name: "Orange", Hex: "#F97316"},
	{Name: "Red", Hex: "#DC2626"},
	{Name: "Teal", Hex: "#14B8A6"},
}

// EmojiPalette is the preset list of list emojis.
var EmojiPalette = []string{"✅", "📝", "🛒", "🎒", "✈️", "🏫", "🧹", "💼", "📦", "🎯"}
