// Package projection derives the visible, ordered sequence of records from a
// raw table and the session's local view intent.
package projection

import (
	"sort"
	"strings"
	"unicode"
)

// SortMode selects the secondary ordering.
type SortMode int

const (
	// SortRecent keeps the order the store delivered (newest lists first,
	// oldest items first).
	SortRecent SortMode = iota
	// SortAlphabetical orders case-insensitively by name or text.
	SortAlphabetical
)

func (m SortMode) String() string {
	if m == SortAlphabetical {
		return "alphabetical"
	}
	return "recent"
}

// ParseSortMode accepts "recent" and "alphabetical" (or "az"). Anything
// else yields SortRecent.
func ParseSortMode(s string) SortMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alphabetical", "az", "a-z":
		return SortAlphabetical
	default:
		return SortRecent
	}
}

// Intent is the local-only view preference of a session. It is never
// written to the store.
type Intent struct {
	SortMode     SortMode
	ShowArchived bool
	SearchQuery  string
}

// Row is what the projector needs from a record.
type Row interface {
	RecordID() string
	SortText() string
	IsPinned() bool
	IsArchived() bool
}

// Project filters and orders records for display. It is pure: records is
// not modified and equal inputs give equal outputs.
//
// Archived rows are dropped unless intent.ShowArchived. A non-empty search
// query keeps rows whose lower-cased text contains the lower-cased, trimmed
// query. Pinned rows always precede unpinned ones; ties keep input order in
// SortRecent and are ordered case-insensitively by text in
// SortAlphabetical.
func Project[R Row](records []R, intent Intent) []R {
	q := strings.ToLower(strings.TrimSpace(intent.SearchQuery))

	visible := make([]R, 0, len(records))
	for _, r := range records {
		if r.IsArchived() && !intent.ShowArchived {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.SortText()), q) {
			continue
		}
		visible = append(visible, r)
	}

	alpha := intent.SortMode == SortAlphabetical
	sort.SliceStable(visible, func(i, j int) bool {
		a, b := visible[i], visible[j]
		if a.IsPinned() != b.IsPinned() {
			return a.IsPinned()
		}
		if alpha {
			return compareFold(a.SortText(), b.SortText()) < 0
		}
		return false
	})
	return visible
}

// compareFold compares two strings ignoring case, rune by rune, the way a
// case-insensitive lexicographic comparator does.
func compareFold(a, b string) int {
	ar, br := []rune(a), []rune(b)
	n := len(ar)
	if len(br) < n {
		n = len(br)
	}
	for i := 0; i < n; i++ {
		x, y := foldRune(ar[i]), foldRune(br[i])
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ar) < len(br):
		return -1
	case len(ar) > len(br):
		return 1
	default:
		return 0
	}
}

func foldRune(r rune) rune {
	return unicode.ToLower(unicode.ToUpper(r))
}

// IDs returns the record ids of a projection in order.
func IDs[R Row](rows []R) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.RecordID()
	}
	return out
}
