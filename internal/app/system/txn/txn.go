// Package txn runs MongoDB multi-document transactions and classifies the
// errors a deployment without replica-set support returns.
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrNotSupported is returned by Run when the deployment cannot run
// transactions (standalone servers). Nothing was committed.
var ErrNotSupported = errors.New("transactions not supported by this deployment")

// Run executes fn inside a transaction. fn must use the ctx it is given so
// its operations join the session. When transactions are unavailable Run
// returns an error matching ErrNotSupported instead of running fn without
// one; the caller decides how to degrade.
func Run(ctx context.Context, db *mongo.Database, logger *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fmt.Errorf("%w: %w", ErrNotSupported, err)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		logger.Debug("transaction not supported", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrNotSupported, err)
	}
	return err
}

// IsNotSupported reports whether err means the server cannot run
// transactions or sessions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: transaction numbers require a replica set
			51,  // legacy IllegalOperation
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "session"):
		return true
	case strings.Contains(msg, "illegal operation"):
		return true
	}
	return false
}

// IsChangeStreamUnsupported reports whether err means the server cannot
// open change streams, so callers should poll instead.
func IsChangeStreamUnsupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 40573, // $changeStream only supported on replica sets
			40324: // unrecognized pipeline stage name ($changeStream)
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "changestream") &&
		(strings.Contains(msg, "replica set") || strings.Contains(msg, "not supported") || strings.Contains(msg, "unrecognized"))
}
