package docstore_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/quicklist/internal/app/system/docstore"
)

func TestPath_Resolve(t *testing.T) {
	tests := []struct {
		path docstore.Path
		want docstore.Location
	}{
		{docstore.ListsPath, docstore.Location{Kind: docstore.KindLists}},
		{docstore.ListPath("a"), docstore.Location{Kind: docstore.KindList, ListID: "a"}},
		{docstore.ItemsPath("a"), docstore.Location{Kind: docstore.KindItems, ListID: "a"}},
		{docstore.ItemPath("a", "b"), docstore.Location{Kind: docstore.KindItem, ListID: "a", ItemID: "b"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.path), func(t *testing.T) {
			got, err := tt.path.Resolve()
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPath_ResolveRejectsBadPaths(t *testing.T) {
	bad := []docstore.Path{"", "users", "lists/", "lists//items", "lists/a/things", "lists/a/items/b/c"}
	for _, p := range bad {
		if _, err := p.Resolve(); !errors.Is(err, docstore.ErrBadPath) {
			t.Errorf("Resolve(%q): expected ErrBadPath, got %v", p, err)
		}
	}
}

func TestPath_ParentAndDocID(t *testing.T) {
	p := docstore.ItemPath("l1", "i9")
	if p.Parent() != docstore.ItemsPath("l1") {
		t.Errorf("Parent: got %q", p.Parent())
	}
	if p.DocID() != "i9" {
		t.Errorf("DocID: got %q", p.DocID())
	}
}
