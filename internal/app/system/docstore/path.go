package docstore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadPath is returned for paths outside the lists/items layout.
var ErrBadPath = errors.New("invalid document path")

const (
	listsSegment = "lists"
	itemsSegment = "items"
)

// Path addresses a collection or a document.
type Path string

// ListsPath is the collection of all lists.
const ListsPath Path = listsSegment

// ListPath addresses one list document.
func ListPath(listID string) Path {
	return Path(listsSegment + "/" + listID)
}

// ItemsPath addresses the items subcollection of a list.
func ItemsPath(listID string) Path {
	return Path(listsSegment + "/" + listID + "/" + itemsSegment)
}

// ItemPath addresses one item document.
func ItemPath(listID, itemID string) Path {
	return Path(listsSegment + "/" + listID + "/" + itemsSegment + "/" + itemID)
}

// Kind classifies a resolved path.
type Kind int

const (
	KindLists Kind = iota + 1
	KindList
	KindItems
	KindItem
)

// Location is a parsed Path.
type Location struct {
	Kind   Kind
	ListID string
	ItemID string
}

// IsCollection reports whether the location names a collection.
func (l Location) IsCollection() bool {
	return l.Kind == KindLists || l.Kind == KindItems
}

// Resolve parses p into a Location.
func (p Path) Resolve() (Location, error) {
	parts := strings.Split(string(p), "/")
	for _, s := range parts {
		if s == "" {
			return Location{}, fmt.Errorf("%w: %q", ErrBadPath, p)
		}
	}
	if parts[0] != listsSegment {
		return Location{}, fmt.Errorf("%w: %q", ErrBadPath, p)
	}
	switch len(parts) {
	case 1:
		return Location{Kind: KindLists}, nil
	case 2:
		return Location{Kind: KindList, ListID: parts[1]}, nil
	case 3:
		if parts[2] == itemsSegment {
			return Location{Kind: KindItems, ListID: parts[1]}, nil
		}
	case 4:
		if parts[2] == itemsSegment {
			return Location{Kind: KindItem, ListID: parts[1], ItemID: parts[3]}, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %q", ErrBadPath, p)
}

// Parent returns the collection containing a document path.
func (p Path) Parent() Path {
	s := string(p)
	if i := strings.LastIndex(s, "/"); i > 0 {
		return Path(s[:i])
	}
	return ""
}

// DocID returns the final segment of a document path.
func (p Path) DocID() string {
	s := string(p)
	return s[strings.LastIndex(s, "/")+1:]
}
