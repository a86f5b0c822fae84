// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/quicklist/internal/app/features/errors"
	feedfeature "github.com/dalemusser/quicklist/internal/app/features/feed"
	healthfeature "github.com/dalemusser/quicklist/internal/app/features/health"
	itemsfeature "github.com/dalemusser/quicklist/internal/app/features/items"
	listsfeature "github.com/dalemusser/quicklist/internal/app/features/lists"
	loginfeature "github.com/dalemusser/quicklist/internal/app/features/login"
	logoutfeature "github.com/dalemusser/quicklist/internal/app/features/logout"
	"github.com/dalemusser/quicklist/internal/app/system/auth"
	"github.com/dalemusser/quicklist/internal/app/system/limits"
	"github.com/dalemusser/quicklist/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. QuickList applies session middleware and
// mounts the JSON feature routers: health, login, logout, lists (with the
// item routes nested under each list), and the live feed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	views := deps.Services.Views

	r := chi.NewRouter()

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	r.Use(middleware.RequestSize(limits.MaxJSONBody))

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.Accounts, sessionMgr, ratelimit.NewAttemptLimiter(), logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, views, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Lists and their items
	itemsHandler := itemsfeature.NewHandler(views, logger)
	listsHandler := listsfeature.NewHandler(views, logger)
	r.Mount("/lists", listsfeature.Routes(listsHandler, sessionMgr, itemsfeature.Routes(itemsHandler)))

	// Live updates
	feedHandler := feedfeature.NewHandler(views, logger)
	r.Mount("/feed", feedfeature.Routes(feedHandler, sessionMgr))

	return r, nil
}
