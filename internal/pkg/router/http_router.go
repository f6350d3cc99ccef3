package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Reakage/app/controllers"
	"github.com/ManuelReschke/Reakage/app/repository"
	"github.com/ManuelReschke/Reakage/internal/pkg/identity"
	"github.com/ManuelReschke/Reakage/internal/pkg/middleware"
	"github.com/ManuelReschke/Reakage/internal/pkg/reports"
	"github.com/ManuelReschke/Reakage/internal/pkg/session"
	"github.com/ManuelReschke/Reakage/internal/pkg/statistics"
)

type HttpRouter struct {
	provider identity.Provider
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	if session.GetSessionStore() == nil {
		session.NewSessionStore()
	}

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware(h.provider))

	// Initialize report controller with the shared services
	controllers.InitializeReportController(reports.GetService(), statistics.GetService())

	// Initialize profile controller with repository
	controllers.InitializeUserController(repository.GetGlobalRepositories().User)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

// NewHttpRouter wires the web routes against the database-backed account
// provider.
func NewHttpRouter() *HttpRouter {
	return &HttpRouter{provider: identity.NewAccountProvider(repository.GetGlobalRepositories().User)}
}
