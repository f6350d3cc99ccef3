// Package identity holds the signed-in state of a client session and the
// provider that verifies credentials.
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("the email address or password is incorrect")
	ErrEmailTaken         = errors.New("the email address is already in use by another account")
	ErrUnknownUser        = errors.New("user not found")
	ErrNoProvider         = errors.New("sign-in is currently unavailable")
)

// Identity is the authenticated user reference.
type Identity struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Provider performs the remote identity calls. Each method is a single call
// and is never retried by the caller.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context, id uint) error
	CurrentUser(ctx context.Context, id uint) (*Identity, error)
}
