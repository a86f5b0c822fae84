// internal/app/store/memory/directory.go
package memorystore

import (
	"context"
	"sync"
)

// Directory is an in-memory user directory. It deliberately allows
// duplicate identifiers so callers can exercise first-match behavior.
type Directory struct {
	mu      sync.Mutex
	entries []dirEntry
	err     error
}

type dirEntry struct {
	userID     string
	identifier string
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{}
}

// Add registers identifier (an email) for userID.
func (d *Directory) Add(userID, identifier string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, dirEntry{userID: userID, identifier: identifier})
}

// FailWith makes every Resolve return err until cleared with nil.
func (d *Directory) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Resolve returns the user ids whose identifier equals identifier exactly,
// in registration order.
func (d *Directory) Resolve(ctx context.Context, identifier string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	var ids []string
	for _, e := range d.entries {
		if e.identifier == identifier {
			ids = append(ids, e.userID)
		}
	}
	return ids, nil
}
