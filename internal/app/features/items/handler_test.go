package items_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/quicklist/internal/app/engine/viewsession"
	"github.com/dalemusser/quicklist/internal/app/features/items"
	"github.com/dalemusser/quicklist/internal/app/features/lists"
	"github.com/dalemusser/quicklist/internal/app/system/auth"
	"github.com/dalemusser/quicklist/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type env struct {
	views  *testutil.Views
	router chi.Router
	listID string
}

func setup(t *testing.T) *env {
	t.Helper()
	views := testutil.SetupViews(t, viewsession.Config{})
	u, err := views.Accounts.Register(context.Background(), "ana@example.com", "secret1", "Ana")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, testutil.WithUser(req, u.ID, u.Email))
		})
	})
	itemsRouter := items.Routes(items.NewHandler(views.Manager, zap.NewNop()))
	r.Mount("/lists", lists.Routes(lists.NewHandler(views.Manager, zap.NewNop()), sm, itemsRouter))
	e := &env{views: views, router: r}

	rec := e.do(t, "POST", "/lists", `{"name":"Groceries"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create list status = %d; body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	e.listID = out.ID
	eventually(t, func() bool {
		return e.do(t, "GET", "/lists/"+e.listID+"/items", "").Code == http.StatusOK
	})
	return e
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

type itemsBody struct {
	Items []struct {
		ID       string `json:"id"`
		Text     string `json:"text"`
		Checked  bool   `json:"checked"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
	Empty    bool `json:"empty"`
	Complete bool `json:"complete"`
	Loaded   bool `json:"loaded"`
}

func (e *env) items(t *testing.T) itemsBody {
	t.Helper()
	rec := e.do(t, "GET", "/lists/"+e.listID+"/items", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET items status = %d; body=%s", rec.Code, rec.Body.String())
	}
	var b itemsBody
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return b
}

func (e *env) createItem(t *testing.T, body string) string {
	t.Helper()
	rec := e.do(t, "POST", "/lists/"+e.listID+"/items", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item status = %d; body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	eventually(t, func() bool {
		for _, it := range e.items(t).Items {
			if it.ID == out.ID {
				return true
			}
		}
		return false
	})
	return out.ID
}

func (e *env) item(t *testing.T, id string) (checked bool, quantity int) {
	t.Helper()
	for _, it := range e.items(t).Items {
		if it.ID == id {
			return it.Checked, it.Quantity
		}
	}
	t.Fatalf("item %s not visible", id)
	return false, 0
}

func TestHandleCreate_QuantityParsing(t *testing.T) {
	e := setup(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"number", `{"text":"Milk","quantity":3}`, 3},
		{"string", `{"text":"Eggs","quantity":"12"}`, 12},
		{"unparsable", `{"text":"Bread","quantity":"lots"}`, 1},
		{"below floor", `{"text":"Jam","quantity":-4}`, 1},
		{"absent", `{"text":"Tea"}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := e.createItem(t, tt.body)
			if _, q := e.item(t, id); q != tt.want {
				t.Errorf("quantity = %d, want %d", q, tt.want)
			}
		})
	}
}

func TestHandleCreate_BlankText(t *testing.T) {
	e := setup(t)
	rec := e.do(t, "POST", "/lists/"+e.listID+"/items", `{"text":"  <i></i> "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleChecked_SetAndFlip(t *testing.T) {
	e := setup(t)
	id := e.createItem(t, `{"text":"Milk"}`)
	path := "/lists/" + e.listID + "/items/" + id + "/checked"

	if rec := e.do(t, "POST", path, ""); rec.Code != http.StatusOK {
		t.Fatalf("flip status = %d; body=%s", rec.Code, rec.Body.String())
	}
	eventually(t, func() bool { c, _ := e.item(t, id); return c })

	b := e.items(t)
	if !b.Complete {
		t.Error("a list whose only item is checked should report complete")
	}

	if rec := e.do(t, "POST", path, `{"checked":false}`); rec.Code != http.StatusOK {
		t.Fatalf("set status = %d; body=%s", rec.Code, rec.Body.String())
	}
	eventually(t, func() bool { c, _ := e.item(t, id); return !c })
}

func TestHandleQuantity(t *testing.T) {
	e := setup(t)
	id := e.createItem(t, `{"text":"Milk","quantity":2}`)
	path := "/lists/" + e.listID + "/items/" + id + "/quantity"

	rec := e.do(t, "POST", path, `{"delta":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("delta status = %d; body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Quantity int `json:"quantity"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Quantity != 5 {
		t.Errorf("quantity = %d, want 5", out.Quantity)
	}
	eventually(t, func() bool { _, q := e.item(t, id); return q == 5 })

	rec = e.do(t, "POST", path, `{"quantity":0}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Quantity != 1 {
		t.Errorf("clamped quantity = %d, want 1", out.Quantity)
	}

	for _, body := range []string{`{}`, `{"quantity":2,"delta":1}`} {
		if rec := e.do(t, "POST", path, body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestHandleDelete_AndUndo(t *testing.T) {
	e := setup(t)
	id := e.createItem(t, `{"text":"Milk","quantity":4}`)

	rec := e.do(t, "DELETE", "/lists/"+e.listID+"/items/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d; body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		UndoToken string `json:"undo_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	eventually(t, func() bool { return e.items(t).Empty })

	if rec := e.do(t, "POST", "/lists/undo/"+out.UndoToken, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("undo status = %d; body=%s", rec.Code, rec.Body.String())
	}
	eventually(t, func() bool { return len(e.items(t).Items) == 1 })
	if _, q := e.item(t, id); q != 4 {
		t.Errorf("restored quantity = %d, want 4", q)
	}
}

func TestItems_UnknownTargets(t *testing.T) {
	e := setup(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"unknown list", "GET", "/lists/nope/items", ""},
		{"unknown item checked", "POST", "/lists/" + e.listID + "/items/nope/checked", `{"checked":true}`},
		{"unknown item flip", "POST", "/lists/" + e.listID + "/items/nope/checked", ""},
		{"unknown item delete", "DELETE", "/lists/" + e.listID + "/items/nope", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := e.do(t, tt.method, tt.path, tt.body); rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404; body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}
