// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/quicklist/internal/app/engine/viewsession"
	"github.com/dalemusser/quicklist/internal/app/system/timeouts"
	"github.com/dalemusser/quicklist/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// applies the write timeout, builds the view session manager, and starts
// the idle-session sweeper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{Write: appCfg.WriteTimeout})

	views := viewsession.NewManager(deps.Docs, deps.Accounts, logger, viewsession.Config{
		UndoWindow:   appCfg.UndoWindow,
		WriteTimeout: timeouts.Write(),
	})
	cleanup := workers.NewViewSessionCleanup(views, logger, appCfg.ViewSessionSweep, appCfg.ViewSessionIdle)
	cleanup.Start()

	deps.Services.Views = views
	deps.Services.Cleanup = cleanup
	return nil
}
