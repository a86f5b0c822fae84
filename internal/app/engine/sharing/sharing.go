// Package sharing adds collaborators to a list by looking them up in the
// user directory.
package sharing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/quicklist/internal/app/system/docstore"
	"github.com/dalemusser/quicklist/internal/domain/models"
	"go.uber.org/zap"
)

var (
	ErrIdentifierRequired = errors.New("identifier required")
	ErrNotFound           = errors.New("no user with that identifier")
	ErrWriteFailed        = errors.New("share write failed")
)

// Directory resolves a user identifier (an email) to matching user ids.
// Matching is exact and case-sensitive.
type Directory interface {
	Resolve(ctx context.Context, identifier string) ([]string, error)
}

// Resolver extends list membership. It keeps no state between calls.
type Resolver struct {
	dir    Directory
	remote docstore.Store
	log    *zap.Logger
}

func New(dir Directory, remote docstore.Store, logger *zap.Logger) *Resolver {
	return &Resolver{dir: dir, remote: remote, log: logger}
}

// InviteByIdentifier adds the user matching identifier to the list's
// members. The identifier is looked up as given, without trimming or
// case folding. When the directory holds duplicates the first match is used.
// Inviting an existing member is a no-op write. It returns the user id
// that was added.
func (r *Resolver) InviteByIdentifier(ctx context.Context, listID, identifier string) (string, error) {
	if strings.TrimSpace(identifier) == "" {
		return "", ErrIdentifierRequired
	}

	ids, err := r.dir.Resolve(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("%w: resolve: %w", ErrWriteFailed, err)
	}
	if len(ids) == 0 {
		return "", ErrNotFound
	}
	if len(ids) > 1 {
		r.log.Warn("duplicate directory entries; using first match",
			zap.String("list_id", listID), zap.Int("matches", len(ids)))
	}
	userID := ids[0]

	err = r.remote.Update(ctx, docstore.ListPath(listID), docstore.Fields{
		models.FieldMembers: docstore.Union(userID),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	r.log.Info("list shared", zap.String("list_id", listID), zap.String("user_id", userID))
	return userID, nil
}
