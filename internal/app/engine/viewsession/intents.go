package viewsession

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/quicklist/internal/app/engine/mutation"
	"github.com/dalemusser/quicklist/internal/app/system/docstore"
	"go.uber.org/zap"
)

// Action is the tag of a RowIntent.
type Action int

const (
	ActionOpen Action = iota + 1
	ActionShare
	ActionPin
	ActionArchive
	ActionColor
	ActionEmoji
	ActionDelete
)

var actionNames = map[Action]string{
	ActionOpen:    "open",
	ActionShare:   "share",
	ActionPin:     "pin",
	ActionArchive: "archive",
	ActionColor:   "color",
	ActionEmoji:   "emoji",
	ActionDelete:  "delete",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction maps a wire name to an Action.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a, n := range actionNames {
		if n == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// RowIntent is a user action on one list row. Value carries the share
// identifier, color or emoji for the actions that take one.
type RowIntent struct {
	Action Action
	ListID string
	Value  string
}

// Outcome reports what Dispatch did.
type Outcome struct {
	Action     string `json:"action"`
	ListID     string `json:"list_id"`
	UndoToken  string `json:"undo_token,omitempty"`
	Pinned     *bool  `json:"pinned,omitempty"`
	SharedWith string `json:"shared_with,omitempty"`
}

// Dispatch applies a row intent. Open starts the list's item subscription;
// the write actions are fire-and-forget except Share, which waits for the
// directory lookup and membership write.
func (s *Session) Dispatch(ctx context.Context, in RowIntent) (Outcome, error) {
	out := Outcome{Action: in.Action.String(), ListID: in.ListID}
	var opErr error

	err := s.do(ctx, func() {
		s.logIntent(in)
		if _, ok := s.lists.Table(listsCollection).Get(in.ListID); !ok {
			opErr = ErrListNotFound
			return
		}
		switch in.Action {
		case ActionOpen:
			opErr = s.openList(in.ListID)
		case ActionShare:
			if strings.TrimSpace(in.Value) == "" {
				opErr = ErrValueMissing
			}
		case ActionPin:
			pinned, err := s.coord.TogglePinned(in.ListID)
			if err != nil {
				opErr = ErrListNotFound
				return
			}
			out.Pinned = &pinned
		case ActionArchive:
			tok, err := s.coord.ToggleArchived(in.ListID)
			if err != nil {
				opErr = ErrListNotFound
				return
			}
			out.UndoToken = s.keepUndo(tok)
		case ActionColor:
			if in.Value == "" {
				opErr = ErrValueMissing
				return
			}
			s.coord.SetColor(in.ListID, in.Value)
		case ActionEmoji:
			if in.Value == "" {
				opErr = ErrValueMissing
				return
			}
			s.coord.SetEmoji(in.ListID, in.Value)
		case ActionDelete:
			s.closeList(in.ListID)
			s.coord.DeleteList(in.ListID)
		default:
			opErr = fmt.Errorf("unknown action %d", int(in.Action))
		}
	})
	if err != nil {
		return out, err
	}
	if opErr != nil {
		return out, opErr
	}

	// Sharing has no local state, so the lookup runs on the caller's
	// goroutine rather than the loop.
	if in.Action == ActionShare {
		uid, err := s.sharer.InviteByIdentifier(ctx, in.ListID, in.Value)
		if err != nil {
			return out, err
		}
		out.SharedWith = uid
	}
	return out, nil
}

// CreateList writes a new list and returns its id.
func (s *Session) CreateList(ctx context.Context, name string) (string, error) {
	var id string
	err := s.do(ctx, func() { id = s.coord.CreateList(name) })
	return id, err
}

// Undo redeems an undo token issued by this session. Tokens are single use.
// Restoring an item whose list is gone fails with ErrListNotFound.
func (s *Session) Undo(ctx context.Context, tokenID string) error {
	var opErr error
	err := s.do(ctx, func() {
		tok, ok := s.undo[tokenID]
		if !ok {
			opErr = ErrUndoNotFound
			return
		}
		delete(s.undo, tokenID)
		if tok.Expired(s.cfg.Now(), s.cfg.UndoWindow) {
			opErr = ErrUndoExpired
			return
		}
		if loc, err := tok.Path.Resolve(); err == nil && loc.Kind == docstore.KindItem {
			if _, ok := s.lists.Table(listsCollection).Get(loc.ListID); !ok {
				opErr = ErrListNotFound
				return
			}
		}
		opErr = s.coord.Undo(tok)
	})
	if err != nil {
		return err
	}
	return opErr
}

func (s *Session) keepUndo(tok mutation.UndoToken) string {
	s.undo[tok.ID] = tok
	return tok.ID
}

// dropItemUndo forgets the undo tokens for items of listID.
func (s *Session) dropItemUndo(listID string) {
	items := docstore.ItemsPath(listID)
	for id, tok := range s.undo {
		if tok.Path.Parent() == items {
			delete(s.undo, id)
		}
	}
}

func (s *Session) purgeUndo() {
	now := s.cfg.Now()
	for id, tok := range s.undo {
		if tok.Expired(now, s.cfg.UndoWindow) {
			delete(s.undo, id)
		}
	}
}

// onWriteResult runs on the coordinator's worker.
func (s *Session) onWriteResult(r mutation.Result) {
	if r.Err == nil {
		return
	}
	s.post(func() {
		s.broadcast(Update{Kind: UpdateWriteFailed, Collection: string(r.Path.Parent()), Err: writeFailureMessage(r)})
	})
}

func writeFailureMessage(r mutation.Result) string {
	msg := "could not save change"
	if r.Op == "delete_list" {
		msg = "could not delete list"
	}
	return msg
}

// Wait blocks until every write issued so far has completed. Tests use it
// to line up with the remote store.
func (s *Session) Wait() {
	s.coord.Wait()
}

func (s *Session) logIntent(in RowIntent) {
	s.log.Debug("row intent", zap.String("action", in.Action.String()), zap.String("list_id", in.ListID))
}
