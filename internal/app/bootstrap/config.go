// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/quicklist/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for QuickList.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: QUICKLIST_MONGO_URI, QUICKLIST_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "quicklist", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "docstore", Default: DocstoreMongo, Desc: "Document store backend: 'mongo' or 'memory'"},

	{Name: "session_key", Default: "", Desc: "Session signing key (blank generates a per-process dev key)"},
	{Name: "session_name", Default: "quicklist-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	{Name: "undo_window", Default: "10s", Desc: "How long an archive or delete can be undone"},
	{Name: "view_session_idle", Default: "15m", Desc: "Close view sessions idle for this long"},
	{Name: "view_session_sweep", Default: "1m", Desc: "How often to sweep idle view sessions"},
	{Name: "subscribe_poll_interval", Default: "2s", Desc: "Re-query interval when change streams are unsupported"},
	{Name: "write_timeout", Default: "10s", Desc: "Timeout for each remote write"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, QUICKLIST_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "QUICKLIST", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		Docstore:         appValues.String("docstore"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		UndoWindow:            appValues.Duration("undo_window", 10*time.Second),
		ViewSessionIdle:       appValues.Duration("view_session_idle", 15*time.Minute),
		ViewSessionSweep:      appValues.Duration("view_session_sweep", time.Minute),
		SubscribePollInterval: appValues.Duration("subscribe_poll_interval", 2*time.Second),
		WriteTimeout:          appValues.Duration("write_timeout", 10*time.Second),
	}

	if appCfg.SessionKey == "" {
		logger.Warn("session_key not set; generated a dev key, sessions will not survive a restart")
		appCfg.SessionKey = auth.GenerateDevKey()
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is only checked when the mongo document store is
// selected.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.Docstore {
	case DocstoreMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	case DocstoreMemory:
	default:
		return fmt.Errorf("docstore must be %q or %q, got %q", DocstoreMongo, DocstoreMemory, appCfg.Docstore)
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"undo_window", appCfg.UndoWindow},
		{"view_session_idle", appCfg.ViewSessionIdle},
		{"view_session_sweep", appCfg.ViewSessionSweep},
		{"subscribe_poll_interval", appCfg.SubscribePollInterval},
		{"write_timeout", appCfg.WriteTimeout},
		{"session_max_age", appCfg.SessionMaxAge},
	}
	for _, c := range durations {
		if c.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", c.name, c.d)
		}
	}
	return nil
}
