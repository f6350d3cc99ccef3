package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Reakage/internal/pkg/identity"
	"github.com/ManuelReschke/Reakage/internal/pkg/session"
	"github.com/ManuelReschke/Reakage/internal/pkg/usercontext"
)

// UserContextMiddleware restores the identity stored in the web session into
// a per-request identity.Holder and exposes it through usercontext.
func UserContextMiddleware(provider identity.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		holder := identity.NewHolder(provider)

		store := session.GetSessionStore()
		if store == nil {
			holder.Restore(c.UserContext(), 0)
			usercontext.Set(c, holder)
			return c.Next()
		}

		sess, err := store.Get(c)
		if err != nil {
			log.Warnf("[UserContext] Loading session failed: %v", err)
			holder.Restore(c.UserContext(), 0)
			usercontext.Set(c, holder)
			return c.Next()
		}

		var userID uint
		if v, ok := sess.Get(usercontext.KeyUserID).(uint); ok {
			userID = v
		}

		state := holder.Restore(c.UserContext(), userID)
		if userID != 0 && !state.SignedIn() {
			// the account behind the session is gone or disabled
			sess.Delete(usercontext.KeyUserID)
			sess.Delete(usercontext.AuthKey)
			if err := sess.Save(); err != nil {
				log.Warnf("[UserContext] Clearing stale session failed: %v", err)
			}
		}

		usercontext.Set(c, holder)
		return c.Next()
	}
}
