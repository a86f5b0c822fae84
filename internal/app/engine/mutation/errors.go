package mutation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrWriteFailed classifies a rejected remote write. It is carried in
	// Result.Err alongside the store's cause.
	ErrWriteFailed = errors.New("write failed")
	// ErrNotFound is returned when the target record is not in the raw table.
	ErrNotFound = errors.New("record not found")
	// ErrPartialDelete is matched by every *BatchDeleteError.
	ErrPartialDelete = errors.New("list delete incomplete")
	// ErrUnknownUndo is returned for a zero or unrecognised UndoToken.
	ErrUnknownUndo = errors.New("unknown undo token")

	errItemsRemain = errors.New("items remain after staged delete")
)

// Delete stages reported by BatchDeleteError.
const (
	StageItems  = "items"
	StageVerify = "verify"
	StageParent = "parent"
)

// BatchDeleteError reports a staged list delete that stopped before the
// parent list was removed. The parent is never deleted while any item
// remains.
type BatchDeleteError struct {
	ListID    string
	Stage     string
	Remaining []string
	Err       error
}

func (e *BatchDeleteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "delete list %s: stopped at %s stage", e.ListID, e.Stage)
	if len(e.Remaining) > 0 {
		fmt.Fprintf(&b, " with %d item(s) remaining", len(e.Remaining))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *BatchDeleteError) Unwrap() []error {
	return []error{ErrPartialDelete, e.Err}
}
