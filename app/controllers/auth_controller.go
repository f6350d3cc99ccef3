package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Reakage/internal/pkg/env"
	"github.com/ManuelReschke/Reakage/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/Reakage/internal/pkg/identity"
	"github.com/ManuelReschke/Reakage/internal/pkg/navigation"
	"github.com/ManuelReschke/Reakage/internal/pkg/statistics"
)

// HandleAuthLogin renders the login screen and runs a sign-in on POST.
func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return render(c, navigation.Login, "auth/login", fiber.Map{
			"Email": c.Query("email"),
		})
	}

	holder := HolderFor(c)
	state := holder.SignIn(c.UserContext(), c.FormValue("email"), c.FormValue("password"))
	if !state.SignedIn() {
		message := state.Error
		holder.ClearError()
		return flashError(c, message, navigation.Login.Path())
	}

	return completeSignIn(c, state.User, "Welcome back!")
}

// HandleAuthRegister renders the sign-up screen and creates the account on POST.
func HandleAuthRegister(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		sitekey := ""
		if hcaptcha.Enabled() {
			sitekey = hcaptcha.SiteKey()
		}
		return render(c, navigation.SignUp, "auth/signup", fiber.Map{
			"HCaptchaSitekey": sitekey,
		})
	}

	if hcaptcha.Enabled() {
		valid, err := hcaptcha.Verify(c.UserContext(), c.FormValue("h-captcha-response"))
		if err != nil || !valid {
			errorMsg := "Captcha validation failed. Please try again."
			if err != nil {
				log.Warnf("[Auth] hCaptcha validation error: %v", err)
				if env.IsDev() {
					errorMsg = "Captcha validation failed: " + err.Error()
				}
			}
			return flashError(c, errorMsg, navigation.SignUp.Path())
		}
	}

	holder := HolderFor(c)
	state := holder.SignUp(c.UserContext(), c.FormValue("email"), c.FormValue("password"), c.FormValue("password_confirmation"))
	if !state.SignedIn() {
		message := state.Error
		holder.ClearError()
		return flashError(c, message, navigation.SignUp.Path())
	}

	if stats := statistics.GetService(); stats != nil {
		stats.UserRegistered()
	}

	return completeSignIn(c, state.User, "Your account has been created.")
}

func completeSignIn(c *fiber.Ctx, user *identity.Identity, message string) error {
	if err := StoreIdentity(c, user); err != nil {
		logError("Auth", err)
		return flashError(c, "Something went wrong. Please try again.", navigation.Login.Path())
	}
	return flashSuccess(c, message, navigation.Home.Path())
}

// HandleAuthLogout signs out and ends the web session.
func HandleAuthLogout(c *fiber.Ctx) error {
	HolderFor(c).SignOut(c.UserContext())

	if err := ClearIdentity(c); err != nil {
		logError("Auth", err)
	}

	return flashSuccess(c, "You have been logged out.", navigation.AfterSignOut().Path())
}
