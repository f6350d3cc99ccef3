package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Reakage/app/models"
	"github.com/ManuelReschke/Reakage/internal/pkg/identity"
)

// Pong is the ping response
type Pong struct {
	Ping string `json:"ping"`
}

// Credentials is the sign-in and sign-up request body
type Credentials struct {
	Email                string `json:"email" form:"email"`
	Password             string `json:"password" form:"password"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation"`
}

// SessionResponse mirrors identity.Session
type SessionResponse struct {
	SignedIn bool               `json:"signed_in"`
	User     *identity.Identity `json:"user"`
}

// ReportList is the body of GET /reports
type ReportList struct {
	Reports []models.Report `json:"reports"`
}

// ErrorResponse is the body of every error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ServerInterface lists the v1 operations
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	PostAuthSignUp(c *fiber.Ctx) error
	PostAuthSignIn(c *fiber.Ctx) error
	PostAuthSignOut(c *fiber.Ctx) error
	GetSession(c *fiber.Ctx) error
	GetReports(c *fiber.Ctx) error
	PostReports(c *fiber.Ctx) error
	GetReport(c *fiber.Ctx, id string) error
}

// RegisterHandlers mounts the v1 operations on router. requireAuth guards
// the report endpoints.
func RegisterHandlers(router fiber.Router, si ServerInterface, requireAuth fiber.Handler) {
	router.Get("/ping", si.GetPing)

	router.Post("/auth/sign-up", si.PostAuthSignUp)
	router.Post("/auth/sign-in", si.PostAuthSignIn)
	router.Post("/auth/sign-out", si.PostAuthSignOut)
	router.Get("/session", si.GetSession)

	router.Get("/reports", requireAuth, si.GetReports)
	router.Post("/reports", requireAuth, si.PostReports)
	router.Get("/reports/:id", requireAuth, func(c *fiber.Ctx) error {
		return si.GetReport(c, c.Params("id"))
	})
}
