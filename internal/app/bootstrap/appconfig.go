// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// Document store backends.
const (
	DocstoreMongo  = "mongo"
	DocstoreMemory = "memory"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration; ports, TLS, logging, and
// CORS live in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in the driver pool

	// Docstore selects the shared document store: "mongo" or "memory".
	// The memory store keeps everything in process and is meant for demos
	// and local development.
	Docstore string

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: quicklist-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// View sessions
	UndoWindow            time.Duration // How long undo tokens stay redeemable
	ViewSessionIdle       time.Duration // Idle time after which a view session is closed
	ViewSessionSweep      time.Duration // How often idle view sessions are swept
	SubscribePollInterval time.Duration // Re-query interval when change streams are unavailable
	WriteTimeout          time.Duration // Bound on each remote write
}
