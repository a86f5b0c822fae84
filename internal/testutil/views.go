package testutil

import (
	"testing"

	"github.com/dalemusser/quicklist/internal/app/engine/viewsession"
	memorystore "github.com/dalemusser/quicklist/internal/app/store/memory"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Views bundles an in-memory document store, account registry, and the
// view session manager built over them.
type Views struct {
	Store    *memorystore.Store
	Accounts *memorystore.Accounts
	Manager  *viewsession.Manager
}

// SetupViews returns a view session manager over fresh in-memory stores.
// Sessions are closed when the test ends.
func SetupViews(t *testing.T, cfg viewsession.Config) *Views {
	t.Helper()
	store := memorystore.New()
	accounts := memorystore.NewAccounts(bcrypt.MinCost)
	m := viewsession.NewManager(store, accounts, zap.NewNop(), cfg)
	t.Cleanup(m.Close)
	return &Views{Store: store, Accounts: accounts, Manager: m}
}
