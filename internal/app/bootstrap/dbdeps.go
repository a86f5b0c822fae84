// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/quicklist/internal/app/engine/viewsession"
	"github.com/dalemusser/quicklist/internal/app/features/login"
	"github.com/dalemusser/quicklist/internal/app/system/docstore"
	"github.com/dalemusser/quicklist/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// Accounts is the account registry: sign-in, registration, and the
// directory that sharing resolves identifiers against.
type Accounts interface {
	login.Accounts
	Resolve(ctx context.Context, identifier string) ([]string, error)
}

// DBDeps holds database/back-end dependencies for the app. The Mongo
// fields are nil when the memory document store is selected.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Docs     docstore.Store
	Accounts Accounts

	// Services is filled in by Startup and shared by BuildHandler and
	// Shutdown.
	Services *Services
}

// Services are the long-lived components built on top of the backends.
type Services struct {
	Views   *viewsession.Manager
	Cleanup *workers.ViewSessionCleanup
}
