// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	documentstore "github.com/dalemusser/quicklist/internal/app/store/documents"
	memorystore "github.com/dalemusser/quicklist/internal/app/store/memory"
	userstore "github.com/dalemusser/quicklist/internal/app/store/users"
	"github.com/dalemusser/quicklist/internal/app/system/indexes"
	"github.com/dalemusser/quicklist/internal/app/system/timeouts"
	"github.com/dalemusser/quicklist/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the configured document store and account registry.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	if appCfg.Docstore == DocstoreMemory {
		logger.Warn("using the in-memory document store; data is lost on restart")
		return DBDeps{
			Docs:     memorystore.New(),
			Accounts: memorystore.NewAccounts(0),
			Services: &Services{},
		}, nil
	}

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	db := client.Database(appCfg.MongoDatabase)
	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Docs:          documentstore.New(db, logger, documentstore.Options{PollInterval: appCfg.SubscribePollInterval}),
		Accounts:      userstore.New(db),
		Services:      &Services{},
	}, nil
}

// EnsureSchema creates the MongoDB collections with their JSON-Schema
// validators, then the indexes. The memory store needs neither.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
