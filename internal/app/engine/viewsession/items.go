package viewsession

import (
	"context"
	"errors"

	"github.com/dalemusser/quicklist/internal/app/engine/mutation"
)

// withList runs fn on the loop after checking the list is visible to the
// user and making sure its items are subscribed.
func (s *Session) withList(ctx context.Context, listID string, fn func() error) error {
	var opErr error
	err := s.do(ctx, func() {
		if opErr = s.openList(listID); opErr != nil {
			return
		}
		opErr = fn()
	})
	if err != nil {
		return err
	}
	return opErr
}

func itemErr(err error) error {
	if errors.Is(err, mutation.ErrNotFound) {
		return ErrItemNotFound
	}
	return err
}

// CreateItem adds an item to listID. Blank text writes nothing.
func (s *Session) CreateItem(ctx context.Context, listID, text string, quantity int) (string, error) {
	var id string
	err := s.withList(ctx, listID, func() error {
		var ok bool
		if id, ok = s.coord.CreateItem(listID, text, quantity); !ok {
			return ErrBlankText
		}
		return nil
	})
	return id, err
}

// SetChecked writes the item's checked state.
func (s *Session) SetChecked(ctx context.Context, listID, itemID string, checked bool) error {
	return s.withList(ctx, listID, func() error {
		if _, ok := (tableReader{s}).Item(listID, itemID); !ok {
			return ErrItemNotFound
		}
		s.coord.ToggleChecked(listID, itemID, checked)
		return nil
	})
}

// FlipChecked negates the item's checked state and returns the new value.
func (s *Session) FlipChecked(ctx context.Context, listID, itemID string) (bool, error) {
	var checked bool
	err := s.withList(ctx, listID, func() error {
		var err error
		checked, err = s.coord.FlipChecked(listID, itemID)
		return itemErr(err)
	})
	return checked, err
}

// SetQuantity writes quantity, clamped to the floor, and returns the value
// written.
func (s *Session) SetQuantity(ctx context.Context, listID, itemID string, quantity int) (int, error) {
	var q int
	err := s.withList(ctx, listID, func() error {
		if _, ok := (tableReader{s}).Item(listID, itemID); !ok {
			return ErrItemNotFound
		}
		q = s.coord.SetQuantity(listID, itemID, quantity)
		return nil
	})
	return q, err
}

// AdjustQuantity adds delta to the item's quantity.
func (s *Session) AdjustQuantity(ctx context.Context, listID, itemID string, delta int) (int, error) {
	var q int
	err := s.withList(ctx, listID, func() error {
		var err error
		q, err = s.coord.AdjustQuantity(listID, itemID, delta)
		return itemErr(err)
	})
	return q, err
}

// DeleteItem deletes the item and returns the id of its undo token.
func (s *Session) DeleteItem(ctx context.Context, listID, itemID string) (string, error) {
	var tokID string
	err := s.withList(ctx, listID, func() error {
		tok, err := s.coord.DeleteItem(listID, itemID)
		if err != nil {
			return itemErr(err)
		}
		tokID = s.keepUndo(tok)
		return nil
	})
	return tokID, err
}
