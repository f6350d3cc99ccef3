package navigation

import (
	"github.com/gofiber/fiber/v2"
)

// LocalsKey is where the current screen is stored in fiber locals.
const LocalsKey = "SCREEN"

// Guard applies Gate to the request. signedIn reports the visitor's state.
// A redirect is issued when Gate picks a different screen.
func Guard(screen Screen, signedIn func(*fiber.Ctx) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		target := Gate(screen, signedIn(c))
		if target != screen {
			return c.Redirect(target.Path(), fiber.StatusSeeOther)
		}
		c.Locals(LocalsKey, screen)
		return c.Next()
	}
}

// Current returns the screen set by Guard, or "" outside a guarded route.
func Current(c *fiber.Ctx) Screen {
	if s, ok := c.Locals(LocalsKey).(Screen); ok {
		return s
	}
	return ""
}
