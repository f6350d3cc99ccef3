package controllers

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Reakage/app/models"
	"github.com/ManuelReschke/Reakage/app/repository"
	"github.com/ManuelReschke/Reakage/internal/pkg/navigation"
	"github.com/ManuelReschke/Reakage/internal/pkg/usercontext"
	"github.com/ManuelReschke/Reakage/internal/pkg/utils"
)

// ProfileStore loads and saves the account behind the profile screen
type ProfileStore interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// UserController serves the profile screen
type UserController struct {
	users ProfileStore
}

// NewUserController creates a profile controller
func NewUserController(users ProfileStore) *UserController {
	return &UserController{users: users}
}

// HandleProfile shows the signed-in account
func (uc *UserController) HandleProfile(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	user, err := uc.users.GetByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return flashError(c, "User not found", navigation.Home.Path())
		}
		logError("Profile", err)
		return flashError(c, "The profile could not be loaded.", navigation.Home.Path())
	}

	return render(c, navigation.Profile, "profile", fiber.Map{
		"Account":   user,
		"AvatarURL": utils.GravatarURL(user.Email, 96),
	})
}

// HandleProfileUpdate saves display name and phone number
func (uc *UserController) HandleProfileUpdate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	user, err := uc.users.GetByID(c.UserContext(), userID)
	if err != nil {
		logError("Profile", err)
		return flashError(c, "The profile could not be loaded.", navigation.Profile.Path())
	}

	if err := user.UpdateProfile(c.FormValue("display_name"), c.FormValue("phone")); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return flashError(c, "Invalid value for "+verrs[0].Field()+".", navigation.Profile.Path())
		}
		return flashError(c, err.Error(), navigation.Profile.Path())
	}

	if err := uc.users.Update(c.UserContext(), user); err != nil {
		logError("Profile", err)
		return flashError(c, "The profile could not be saved.", navigation.Profile.Path())
	}

	return flashSuccess(c, "Profile updated.", navigation.Profile.Path())
}

var userController *UserController

// InitializeUserController initializes the global profile controller
func InitializeUserController(users ProfileStore) {
	userController = NewUserController(users)
}

// GetUserController returns the global profile controller instance
func GetUserController() *UserController {
	if userController == nil {
		InitializeUserController(repository.GetGlobalFactory().GetUserRepository())
	}
	return userController
}
