package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Reakage/internal/pkg/navigation"
	"github.com/ManuelReschke/Reakage/internal/pkg/statistics"
	"github.com/ManuelReschke/Reakage/internal/pkg/usercontext"
)

// HandleSplash shows the splash screen, which forwards to /splash/next
// after navigation.SplashDelay.
func HandleSplash(c *fiber.Ctx) error {
	return render(c, navigation.Splash, "splash", fiber.Map{
		"DelaySeconds": int(navigation.SplashDelay.Seconds()),
		"NextURL":      "/splash/next",
	})
}

// HandleSplashNext redirects to home or login.
func HandleSplashNext(c *fiber.Ctx) error {
	target := navigation.AfterSplash(usercontext.IsLoggedIn(c))
	return c.Redirect(target.Path(), fiber.StatusSeeOther)
}

// HandleHome renders the home screen with report counters.
func HandleHome(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	data := fiber.Map{}
	if stats := statistics.GetService(); stats != nil {
		data["Stats"] = stats.GetStatisticsData(c.UserContext())
		data["MyReports"] = stats.UserReports(c.UserContext(), userCtx.UserID)
	}
	return render(c, navigation.Home, "home", data)
}
