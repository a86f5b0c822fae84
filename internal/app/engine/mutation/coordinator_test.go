package mutation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/quicklist/internal/app/engine/mutation"
	memorystore "github.com/dalemusser/quicklist/internal/app/store/memory"
	"github.com/dalemusser/quicklist/internal/app/system/docstore"
	"github.com/dalemusser/quicklist/internal/domain/models"
	"go.uber.org/zap"
)

// storeReader reads records straight from the memory store, standing in
// for the session's raw tables.
type storeReader struct{ s *memorystore.Store }

func (r storeReader) List(listID string) (models.List, bool) {
	f, ok := r.s.Get(docstore.ListPath(listID))
	if !ok {
		return models.List{}, false
	}
	return models.ListFromFields(listID, f), true
}

func (r storeReader) Item(listID, itemID string) (models.Item, bool) {
	f, ok := r.s.Get(docstore.ItemPath(listID, itemID))
	if !ok {
		return models.Item{}, false
	}
	return models.ItemFromFields(itemID, listID, f), true
}

type results struct {
	mu  sync.Mutex
	all []mutation.Result
}

func (r *results) add(res mutation.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, res)
}

func (r *results) errs() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []error
	for _, res := range r.all {
		if res.Err != nil {
			out = append(out, res.Err)
		}
	}
	return out
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newCoordinator(t *testing.T) (*mutation.Coordinator, *memorystore.Store, *results) {
	t.Helper()
	s := memorystore.New()
	res := &results{}
	c := mutation.New(s, storeReader{s}, "u1", zap.NewNop(), mutation.Options{
		Now:      func() time.Time { return fixedNow },
		OnResult: res.add,
	})
	t.Cleanup(c.Close)
	return c, s, res
}

func seedItem(t *testing.T, s *memorystore.Store, listID, itemID string, checked bool, qty int) {
	t.Helper()
	it := models.Item{ID: itemID, ListID: listID, Text: "milk " + itemID, CreatedBy: "u1", CreatedAt: fixedNow, Checked: checked, Quantity: qty}
	if err := s.Set(context.Background(), docstore.ItemPath(listID, itemID), it.Fields()); err != nil {
		t.Fatalf("seed item: %v", err)
	}
}

func seedList(t *testing.T, s *memorystore.Store, listID string) {
	t.Helper()
	l := models.NewList(listID, "u1", "Groceries", fixedNow)
	if err := s.Set(context.Background(), docstore.ListPath(listID), l.Fields()); err != nil {
		t.Fatalf("seed list: %v", err)
	}
}

func TestSetQuantity_ClampsToFloor(t *testing.T) {
	c, s, _ := newCoordinator(t)
	seedItem(t, s, "l", "i", false, 3)

	tests := []struct {
		req  int
		want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{7, 7},
	}
	for _, tt := range tests {
		if got := c.SetQuantity("l", "i", tt.req); got != tt.want {
			t.Errorf("SetQuantity(%d) = %d, want %d", tt.req, got, tt.want)
		}
		c.Wait()
		f, _ := s.Get(docstore.ItemPath("l", "i"))
		if f[models.FieldQuantity] != tt.want {
			t.Errorf("stored quantity after SetQuantity(%d) = %v, want %d", tt.req, f[models.FieldQuantity], tt.want)
		}
	}

	for _, op := range s.Applied() {
		if q, ok := op.Fields[models.FieldQuantity].(int); ok && q < 1 {
			t.Fatalf("wrote quantity %d below floor", q)
		}
	}
}

func TestAdjustQuantity(t *testing.T) {
	c, s, _ := newCoordinator(t)
	seedItem(t, s, "l", "i", false, 2)

	got, err := c.AdjustQuantity("l", "i", -4)
	if err != nil {
		t.Fatalf("AdjustQuantity: %v", err)
	}
	if got != 1 {
		t.Fatalf("AdjustQuantity = %d, want 1", got)
	}
	if _, err := c.AdjustQuantity("l", "missing", 1); !errors.Is(err, mutation.ErrNotFound) {
		t.Fatalf("AdjustQuantity missing err = %v, want ErrNotFound", err)
	}
}

func TestToggleChecked_AndFlip(t *testing.T) {
	c, s, _ := newCoordinator(t)
	seedItem(t, s, "l", "i", false, 1)

	c.ToggleChecked("l", "i", true)
	c.Wait()
	f, _ := s.Get(docstore.ItemPath("l", "i"))
	if f[models.FieldChecked] != true {
		t.Fatalf("checked = %v, want true", f[models.FieldChecked])
	}

	now, err := c.FlipChecked("l", "i")
	if err != nil || now {
		t.Fatalf("FlipChecked = %v, %v; want false, nil", now, err)
	}
	c.Wait()
	f, _ = s.Get(docstore.ItemPath("l", "i"))
	if f[models.FieldChecked] != false {
		t.Fatalf("checked after flip = %v, want false", f[models.FieldChecked])
	}
}

func TestToggleArchived_UndoRestoresPriorValue(t *testing.T) {
	c, s, _ := newCoordinator(t)
	seedList(t, s, "l")

	tok, err := c.ToggleArchived("l")
	if err != nil {
		t.Fatalf("ToggleArchived: %v", err)
	}
	if tok.Kind != mutation.UndoRestoreFields || tok.ID == "" {
		t.Fatalf("token = %+v", tok)
	}
	c.Wait()
	f, _ := s.Get(docstore.ListPath("l"))
	if f[models.FieldArchived] != true {
		t.Fatalf("archived = %v, want true", f[models.FieldArchived])
	}

	if err := c.Undo(tok); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	c.Wait()
	f, _ = s.Get(docstore.ListPath("l"))
	if f[models.FieldArchived] != false {
		t.Fatalf("archived after undo = %v, want false", f[models.FieldArchived])
	}
}

func TestTogglePinned(t *testing.T) {
	c, s, _ := newCoordinator(t)
	seedList(t, s, "l")

	pinned, err := c.TogglePinned("l")
	if err != nil || !pinned {
		t.Fatalf("TogglePinned = %v, %v; want true, nil", pinned, err)
	}
	if _, err := c.TogglePinned("missing"); !errors.Is(err, mutation.ErrNotFound) {
		t.Fatalf("TogglePinned missing err = %v, want ErrNotFound", err)
	}
}

func TestDeleteItem_UndoRecreatesSameIDAndFields(t *testing.T) {
	c, s, _ := newCoordinator(t)
	seedItem(t, s, "l", "i", true, 4)
	before, _ := s.Get(docstore.ItemPath("l", "i"))

	tok, err := c.DeleteItem("l", "i")
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	c.Wait()
	if _, ok := s.Get(docstore.ItemPath("l", "i")); ok {
		t.Fatal("item still present after delete")
	}

	if err := c.Undo(tok); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	c.Wait()
	after, ok := s.Get(docstore.ItemPath("l", "i"))
	if !ok {
		t.Fatal("item not recreated under the same id")
	}
	for k, v := range before {
		if after[k] != v {
			t.Errorf("field %s = %v, want %v", k, after[k], v)
		}
	}
	if len(after) != len(before) {
		t.Errorf("field count = %d, want %d", len(after), len(before))
	}
}

func TestUndo_ZeroToken(t *testing.T) {
	c, _, _ := newCoordinator(t)
	if err := c.Undo(mutation.UndoToken{}); !errors.Is(err, mutation.ErrUnknownUndo) {
		t.Fatalf("Undo zero err = %v, want ErrUnknownUndo", err)
	}
}

func TestCreateList_Defaults(t *testing.T) {
	c, s, _ := newCoordinator(t)
	id := c.CreateList("   ")
	c.Wait()

	f, ok := s.Get(docstore.ListPath(id))
	if !ok {
		t.Fatal("list not written")
	}
	l := models.ListFromFields(id, f)
	if l.DisplayName() != models.DefaultListName {
		t.Errorf("display name = %q, want %q", l.DisplayName(), models.DefaultListName)
	}
	if !l.HasMember("u1") || l.CreatedBy != "u1" {
		t.Errorf("owner not a member: %+v", l)
	}
	if !l.CreatedAt.Equal(fixedNow) {
		t.Errorf("created_at = %v, want %v", l.CreatedAt, fixedNow)
	}
}

func TestCreateItem_BlankIsNoop(t *testing.T) {
	c, s, _ := newCoordinator(t)
	if _, ok := c.CreateItem("l", "  \t ", 3); ok {
		t.Fatal("CreateItem accepted blank text")
	}
	c.Wait()
	if n := len(s.Applied()); n != 0 {
		t.Fatalf("blank create issued %d writes", n)
	}

	id, ok := c.CreateItem("l", " eggs ", -2)
	if !ok {
		t.Fatal("CreateItem rejected valid text")
	}
	c.Wait()
	f, _ := s.Get(docstore.ItemPath("l", id))
	it := models.ItemFromFields(id, "l", f)
	if it.Text != "eggs" || it.Quantity != 1 || it.Checked {
		t.Fatalf("item = %+v", it)
	}
}

func TestFailedWriteSurfacesAsResult(t *testing.T) {
	c, s, res := newCoordinator(t)
	seedList(t, s, "l")
	boom := errors.New("permission denied")
	s.FailWith(func(docstore.Op) error { return boom })

	c.SetColor("l", "#2563EB")
	c.Wait()

	errs := res.errs()
	if len(errs) != 1 {
		t.Fatalf("got %d failed results, want 1", len(errs))
	}
	if !errors.Is(errs[0], mutation.ErrWriteFailed) || !errors.Is(errs[0], boom) {
		t.Fatalf("result err = %v, want ErrWriteFailed wrapping cause", errs[0])
	}
}

func TestDeleteList_Atomic(t *testing.T) {
	c, s, res := newCoordinator(t)
	seedList(t, s, "l")
	seedItem(t, s, "l", "1", false, 1)
	seedItem(t, s, "l", "2", false, 1)

	c.DeleteList("l")
	c.Wait()

	if errs := res.errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, ok := s.Get(docstore.ListPath("l")); ok {
		t.Fatal("list still present")
	}
	left, _ := s.Query(context.Background(), docstore.Query{Collection: docstore.ItemsPath("l")})
	if len(left) != 0 {
		t.Fatalf("%d items left", len(left))
	}
}

func TestDeleteList_AtomicFailureLeavesEverything(t *testing.T) {
	c, s, res := newCoordinator(t)
	seedList(t, s, "l")
	seedItem(t, s, "l", "1", false, 1)
	seedItem(t, s, "l", "2", false, 1)
	s.FailWith(func(op docstore.Op) error {
		if op.Path == docstore.ItemPath("l", "2") {
			return errors.New("unavailable")
		}
		return nil
	})

	c.DeleteList("l")
	c.Wait()

	if errs := res.errs(); len(errs) != 1 || !errors.Is(errs[0], mutation.ErrWriteFailed) {
		t.Fatalf("errors = %v, want one ErrWriteFailed", errs)
	}
	if _, ok := s.Get(docstore.ListPath("l")); !ok {
		t.Fatal("list removed by failed batch")
	}
	if _, ok := s.Get(docstore.ItemPath("l", "1")); !ok {
		t.Fatal("item removed by failed batch")
	}
}

func TestDeleteList_StagedWhenBatchUnsupported(t *testing.T) {
	c, s, res := newCoordinator(t)
	s.SetAtomicBatches(false)
	seedList(t, s, "l")
	for _, id := range []string{"1", "2", "3"} {
		seedItem(t, s, "l", id, false, 1)
	}

	c.DeleteList("l")
	c.Wait()

	if errs := res.errs(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, ok := s.Get(docstore.ListPath("l")); ok {
		t.Fatal("list still present")
	}
}

func TestDeleteList_StagedPartialKeepsParent(t *testing.T) {
	c, s, res := newCoordinator(t)
	s.SetAtomicBatches(false)
	seedList(t, s, "l")
	for _, id := range []string{"1", "2", "3"} {
		seedItem(t, s, "l", id, false, 1)
	}
	s.FailWith(func(op docstore.Op) error {
		if op.Path == docstore.ItemPath("l", "2") {
			return errors.New("unavailable")
		}
		return nil
	})

	c.DeleteList("l")
	c.Wait()

	errs := res.errs()
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want one", errs)
	}
	var bde *mutation.BatchDeleteError
	if !errors.As(errs[0], &bde) || !errors.Is(errs[0], mutation.ErrPartialDelete) {
		t.Fatalf("err = %v, want *BatchDeleteError", errs[0])
	}
	if bde.Stage != mutation.StageItems {
		t.Errorf("stage = %q, want %q", bde.Stage, mutation.StageItems)
	}
	if len(bde.Remaining) == 0 {
		t.Error("no remaining items reported")
	}
	if _, ok := s.Get(docstore.ListPath("l")); !ok {
		t.Fatal("parent deleted while items remain")
	}
	for _, op := range s.Applied() {
		if op.Kind == docstore.OpDelete && op.Path == docstore.ListPath("l") {
			t.Fatal("parent delete was issued")
		}
	}
}

func TestWritesApplyInIssueOrder(t *testing.T) {
	c, s, _ := newCoordinator(t)
	seedItem(t, s, "l", "i", false, 1)

	for q := 2; q <= 20; q++ {
		c.SetQuantity("l", "i", q)
	}
	c.Wait()
	f, _ := s.Get(docstore.ItemPath("l", "i"))
	if f[models.FieldQuantity] != 20 {
		t.Fatalf("quantity = %v, want 20", f[models.FieldQuantity])
	}
}
