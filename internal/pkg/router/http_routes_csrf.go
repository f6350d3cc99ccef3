package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/ManuelReschke/Reakage/app/controllers"
	"github.com/ManuelReschke/Reakage/internal/pkg/env"
	"github.com/ManuelReschke/Reakage/internal/pkg/middleware"
	"github.com/ManuelReschke/Reakage/internal/pkg/navigation"
	"github.com/ManuelReschke/Reakage/internal/pkg/usercontext"
)

func guard(screen navigation.Screen) fiber.Handler {
	return navigation.Guard(screen, usercontext.IsLoggedIn)
}

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))

	group.Get("/login", guard(navigation.Login), controllers.HandleAuthLogin)
	group.Post("/login", guard(navigation.Login), controllers.HandleAuthLogin)
	group.Get("/signup", guard(navigation.SignUp), controllers.HandleAuthRegister)
	group.Post("/signup", guard(navigation.SignUp), controllers.HandleAuthRegister)
	// a signed-out visitor is sent to /login as well
	group.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	group.Get("/home", guard(navigation.Home), controllers.HandleHome)

	group.Get("/reports/new", guard(navigation.SubmitReport), controllers.HandleReportNew)
	group.Post("/reports/new", guard(navigation.SubmitReport), controllers.HandleReportCreate)
	group.Get("/reports", guard(navigation.ReportList), controllers.HandleReportList)
	group.Get("/reports/stream", guard(navigation.ReportList), controllers.HandleReportStream)
	group.Get("/reports/:id", guard(navigation.ReportDetail), controllers.HandleReportShow)

	group.Get("/profile", guard(navigation.Profile), controllers.HandleUserProfile)
	group.Post("/profile", guard(navigation.Profile), controllers.HandleUserProfileUpdate)
}
