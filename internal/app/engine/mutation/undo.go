package mutation

import (
	"time"

	"github.com/dalemusser/quicklist/internal/app/system/docstore"
)

// UndoKind selects how an UndoToken reverses its operation.
type UndoKind int

const (
	// UndoRestoreFields rewrites captured fields on an existing document.
	UndoRestoreFields UndoKind = iota + 1
	// UndoRecreate recreates a deleted document under its original id.
	UndoRecreate
)

func (k UndoKind) String() string {
	switch k {
	case UndoRestoreFields:
		return "restore"
	case UndoRecreate:
		return "recreate"
	default:
		return "none"
	}
}

// UndoToken captures the prior state needed to reverse one operation.
// It is a value: holding or copying it has no effect until passed to
// Coordinator.Undo.
type UndoToken struct {
	ID       string
	Kind     UndoKind
	Path     docstore.Path
	Fields   docstore.Fields
	IssuedAt time.Time
}

// IsZero reports whether t was never issued.
func (t UndoToken) IsZero() bool {
	return t.Kind == 0
}

// Expired reports whether t is older than window at now.
func (t UndoToken) Expired(now time.Time, window time.Duration) bool {
	return window > 0 && now.Sub(t.IssuedAt) > window
}
