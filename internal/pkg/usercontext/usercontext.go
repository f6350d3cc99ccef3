package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Reakage/internal/pkg/identity"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID      uint   `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IsLoggedIn  bool   `json:"is_logged_in"`
}

// Identity converts the context into the identity used by the coordinators.
// Returns nil for anonymous requests.
func (u UserContext) Identity() *identity.Identity {
	if !u.IsLoggedIn || u.UserID == 0 {
		return nil
	}
	return &identity.Identity{ID: u.UserID, Email: u.Email, DisplayName: u.DisplayName}
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return ctx
	}
	return UserContext{IsLoggedIn: false}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

// GetIdentity returns the signed-in identity or nil.
func GetIdentity(c *fiber.Ctx) *identity.Identity {
	return GetUserContext(c).Identity()
}

// GetHolder returns the identity holder restored for this request.
func GetHolder(c *fiber.Ctx) *identity.Holder {
	if h, ok := c.Locals(KeyHolder).(*identity.Holder); ok {
		return h
	}
	return nil
}

// Set stores the request's holder and derives the user context from its state.
func Set(c *fiber.Ctx, holder *identity.Holder) UserContext {
	userCtx := UserContext{}
	if user := holder.State().User; user != nil {
		userCtx = UserContext{
			UserID:      user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			IsLoggedIn:  true,
		}
	}
	c.Locals(KeyHolder, holder)
	c.Locals(KeyUserContext, userCtx)
	return userCtx
}
