package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Reakage/app/controllers"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Splash is the entry point for every visitor
	app.Get("/", controllers.HandleSplash)
	app.Get("/splash/next", controllers.HandleSplashNext)
}
