package projection_test

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/dalemusser/quicklist/internal/app/engine/projection"
	"github.com/dalemusser/quicklist/internal/domain/models"
)

func list(id, name string, pinned, archived bool) models.List {
	return models.List{ID: id, Name: name, Pinned: pinned, Archived: archived}
}

func names(ls []models.List) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Name
	}
	return out
}

func TestProject_Scenario(t *testing.T) {
	table := []models.List{
		list("1", "B", false, false),
		list("2", "A", true, false),
		list("3", "C", false, true),
	}
	intent := projection.Intent{SortMode: projection.SortAlphabetical}

	got := names(projection.Project(table, intent))
	want := []string{"A", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestProject_ShowArchived(t *testing.T) {
	table := []models.List{
		list("1", "B", false, false),
		list("3", "C", false, true),
	}
	got := names(projection.Project(table, projection.Intent{ShowArchived: true}))
	if !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Errorf("got %v", got)
	}
}

func TestProject_Search(t *testing.T) {
	table := []models.List{
		list("1", "Weekly Groceries", false, false),
		list("2", "Hardware", false, false),
		list("3", "grocery run", false, false),
		list("4", "", false, false),
	}
	got := names(projection.Project(table, projection.Intent{SearchQuery: "  GROCER "}))
	want := []string{"Weekly Groceries", "grocery run"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestProject_AlphabeticalIgnoresCaseAndEmptyFirst(t *testing.T) {
	table := []models.List{
		list("1", "banana", false, false),
		list("2", "Apple", false, false),
		list("3", "", false, false),
		list("4", "cherry", false, false),
	}
	got := names(projection.Project(table, projection.Intent{SortMode: projection.SortAlphabetical}))
	want := []string{"", "Apple", "banana", "cherry"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestProject_RecentKeepsArrivalOrder(t *testing.T) {
	table := []models.List{
		list("1", "zeta", false, false),
		list("2", "alpha", true, false),
		list("3", "mid", false, false),
		list("4", "beta", true, false),
	}
	got := names(projection.Project(table, projection.Intent{}))
	want := []string{"alpha", "beta", "zeta", "mid"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	table := []models.List{
		list("1", "b", false, false),
		list("2", "a", true, false),
	}
	before := append([]models.List(nil), table...)
	projection.Project(table, projection.Intent{SortMode: projection.SortAlphabetical})
	if !reflect.DeepEqual(table, before) {
		t.Error("Project modified its input")
	}
}

func randomLists(r *rand.Rand, n int) []models.List {
	words := []string{"apple", "Apple", "bread", "", "milk", "MILK", "eggs", "zucchini"}
	out := make([]models.List, n)
	for i := range out {
		out[i] = list(fmt.Sprintf("id-%d", i), words[r.Intn(len(words))], r.Intn(3) == 0, r.Intn(4) == 0)
	}
	return out
}

func TestProject_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		table := randomLists(r, r.Intn(12))
		for _, mode := range []projection.SortMode{projection.SortRecent, projection.SortAlphabetical} {
			intent := projection.Intent{SortMode: mode, ShowArchived: round%2 == 0}

			first := projection.Project(table, intent)
			second := projection.Project(table, intent)
			if !reflect.DeepEqual(first, second) {
				t.Fatalf("round %d: projection not idempotent", round)
			}

			// Pin precedence.
			seenUnpinned := false
			for _, l := range first {
				if !l.Pinned {
					seenUnpinned = true
				} else if seenUnpinned {
					t.Fatalf("round %d mode %v: pinned after unpinned: %v", round, mode, projection.IDs(first))
				}
			}

			if mode != projection.SortRecent {
				continue
			}
			// Stability: within a pin rank, relative input order is kept.
			pos := make(map[string]int, len(table))
			for i, l := range table {
				pos[l.ID] = i
			}
			for i := 1; i < len(first); i++ {
				a, b := first[i-1], first[i]
				if a.Pinned == b.Pinned && pos[a.ID] > pos[b.ID] {
					t.Fatalf("round %d: recent order not stable: %v", round, projection.IDs(first))
				}
			}
		}
	}
}

func TestProject_Items(t *testing.T) {
	items := []models.Item{
		{ID: "1", Text: "milk"},
		{ID: "2", Text: "Bread"},
		{ID: "3", Text: "apples"},
	}

	recent := projection.IDs(projection.Project(items, projection.Intent{}))
	if !reflect.DeepEqual(recent, []string{"1", "2", "3"}) {
		t.Errorf("recent: got %v", recent)
	}

	alpha := projection.IDs(projection.Project(items, projection.Intent{SortMode: projection.SortAlphabetical}))
	if !reflect.DeepEqual(alpha, []string{"3", "2", "1"}) {
		t.Errorf("alphabetical: got %v", alpha)
	}
}

func TestParseSortMode(t *testing.T) {
	tests := map[string]projection.SortMode{
		"":             projection.SortRecent,
		"recent":       projection.SortRecent,
		"Alphabetical": projection.SortAlphabetical,
		"az":           projection.SortAlphabetical,
		"bogus":        projection.SortRecent,
	}
	for in, want := range tests {
		if got := projection.ParseSortMode(in); got != want {
			t.Errorf("ParseSortMode(%q) = %v, want %v", in, got, want)
		}
	}
}
