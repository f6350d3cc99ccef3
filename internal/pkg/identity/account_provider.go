package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/Reakage/app/models"
)

// UserStore is the persistence the account provider needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

// AccountProvider verifies email/password accounts stored in the database.
type AccountProvider struct {
	users UserStore
	now   func() time.Time
}

// NewAccountProvider returns a provider backed by users.
func NewAccountProvider(users UserStore) *AccountProvider {
	return &AccountProvider{users: users, now: time.Now}
}

func (p *AccountProvider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	if _, err := p.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("sign-up: %w", err)
	}

	user, err := models.CreateUser(email, password)
	if err != nil {
		return nil, err
	}
	if err := p.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("sign-up: %w", err)
	}
	return toIdentity(user), nil
}

func (p *AccountProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign-in: %w", err)
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, errors.New("this account has been disabled")
	}

	// best effort, a failed timestamp update must not block the sign-in
	_ = p.users.TouchLastLogin(ctx, user.ID, p.now())

	return toIdentity(user), nil
}

// SignOut has no server-side state beyond the web session, which the
// caller destroys.
func (p *AccountProvider) SignOut(ctx context.Context, id uint) error {
	return nil
}

func (p *AccountProvider) CurrentUser(ctx context.Context, id uint) (*Identity, error) {
	user, err := p.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrUnknownUser
	}
	return toIdentity(user), nil
}

func toIdentity(u *models.User) *Identity {
	return &Identity{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}
