package identity

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Reakage/internal/pkg/observable"
)

// Session is the observable projection of the signed-in state.
type Session struct {
	Loading bool      `json:"loading"`
	User    *Identity `json:"user"`
	Error   string    `json:"error,omitempty"`

	err error
}

// SignedIn reports whether an identity is present.
func (s Session) SignedIn() bool {
	return s.User != nil
}

// Err returns the provider error behind Error, if any.
func (s Session) Err() error {
	return s.err
}

// Holder wraps a Provider and exposes the session as an observable value.
type Holder struct {
	provider Provider
	state    *observable.Cell[Session]
}

// NewHolder returns a holder in the loading state until Restore or one of the
// sign-in operations completes.
func NewHolder(provider Provider) *Holder {
	return &Holder{
		provider: provider,
		state:    observable.New(Session{Loading: true}),
	}
}

// State returns the current session value.
func (h *Holder) State() Session {
	return h.state.Get()
}

// Subscribe streams every session change until ctx is done.
func (h *Holder) Subscribe(ctx context.Context) <-chan Session {
	return h.state.Subscribe(ctx)
}

// Restore resolves a previously stored identity id. A zero id or a failed
// lookup leaves the holder signed out without an error.
func (h *Holder) Restore(ctx context.Context, id uint) Session {
	if id == 0 || h.provider == nil {
		h.state.Set(Session{})
		return h.State()
	}
	user, err := h.provider.CurrentUser(ctx, id)
	if err != nil {
		log.Debugf("[Identity] restore of user %d failed: %v", id, err)
		h.state.Set(Session{})
		return h.State()
	}
	h.state.Set(Session{User: user})
	return h.State()
}

// SignUp creates an account. confirm must repeat password.
func (h *Holder) SignUp(ctx context.Context, email, password, confirm string) Session {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		h.state.Set(Session{Error: "Email and password cannot be empty."})
		return h.State()
	}
	if password != confirm {
		h.state.Set(Session{Error: "Passwords do not match."})
		return h.State()
	}
	return h.run(func() (*Identity, error) {
		return h.provider.SignUp(ctx, email, password)
	})
}

// SignIn verifies credentials.
func (h *Holder) SignIn(ctx context.Context, email, password string) Session {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		h.state.Set(Session{Error: "Email and password cannot be empty."})
		return h.State()
	}
	return h.run(func() (*Identity, error) {
		return h.provider.SignIn(ctx, email, password)
	})
}

// SignOut always ends signed out, even when the provider call fails.
func (h *Holder) SignOut(ctx context.Context) Session {
	if current := h.State().User; current != nil && h.provider != nil {
		if err := h.provider.SignOut(ctx, current.ID); err != nil {
			log.Warnf("[Identity] sign-out of user %d: %v", current.ID, err)
		}
	}
	h.state.Set(Session{})
	return h.State()
}

// ClearError drops the error after the UI has shown it.
func (h *Holder) ClearError() Session {
	return h.state.Update(func(s Session) Session {
		s.Error = ""
		s.err = nil
		return s
	})
}

func (h *Holder) run(call func() (*Identity, error)) Session {
	if h.provider == nil {
		h.state.Set(Session{Error: ErrNoProvider.Error(), err: ErrNoProvider})
		return h.State()
	}
	h.state.Set(Session{Loading: true})
	user, err := call()
	if err != nil {
		h.state.Set(Session{Error: err.Error(), err: err})
		return h.State()
	}
	h.state.Set(Session{User: user})
	return h.State()
}
