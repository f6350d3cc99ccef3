package controllers

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"
	"github.com/valyala/fasthttp"

	"github.com/ManuelReschke/Reakage/app/models"
	"github.com/ManuelReschke/Reakage/internal/pkg/identity"
	"github.com/ManuelReschke/Reakage/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/Reakage/internal/pkg/navigation"
	"github.com/ManuelReschke/Reakage/internal/pkg/reports"
	"github.com/ManuelReschke/Reakage/internal/pkg/session"
	"github.com/ManuelReschke/Reakage/internal/pkg/usercontext"
)

const layoutMain = "layouts/main"

// ErrPhotoTooLarge is returned by ParseSubmitInput for oversized uploads.
var ErrPhotoTooLarge = errors.New("The photo is too large.")

// NavLink is one outgoing link of a screen.
type NavLink struct {
	Title string
	Path  string
}

func navLinks(screen navigation.Screen) []NavLink {
	var links []NavLink
	for _, next := range navigation.Next(screen) {
		// detail pages are linked from list items, login is reached by signing out
		if next == navigation.ReportDetail || next == navigation.Login && screen == navigation.Profile {
			continue
		}
		links = append(links, NavLink{Title: next.Title(), Path: next.Path()})
	}
	return links
}

func csrfToken(c *fiber.Ctx) string {
	if token, ok := c.Locals("csrf").(string); ok {
		return token
	}
	return ""
}

// render renders a screen template inside the main layout with the data
// every screen needs.
func render(c *fiber.Ctx, screen navigation.Screen, template string, data fiber.Map) error {
	userCtx := usercontext.GetUserContext(c)
	bind := fiber.Map{
		"Title":      screen.Title(),
		"Screen":     string(screen),
		"Links":      navLinks(screen),
		"Flash":      flash.Get(c),
		"CSRF":       csrfToken(c),
		"IsLoggedIn": userCtx.IsLoggedIn,
		"User":       userCtx,
	}
	for k, v := range data {
		bind[k] = v
	}
	return c.Render(template, bind, layoutMain)
}

func flashError(c *fiber.Ctx, message, to string) error {
	return flash.WithError(c, fiber.Map{"type": "error", "message": message}).Redirect(to)
}

func flashSuccess(c *fiber.Ctx, message, to string) error {
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": message}).Redirect(to)
}

// HolderFor returns the request's identity holder. Requests outside the
// user context middleware get a signed-out holder without a provider.
func HolderFor(c *fiber.Ctx) *identity.Holder {
	if h := usercontext.GetHolder(c); h != nil {
		return h
	}
	h := identity.NewHolder(nil)
	h.Restore(c.UserContext(), 0)
	return h
}

// StoreIdentity binds user to the web session.
func StoreIdentity(c *fiber.Ctx, user *identity.Identity) error {
	store := session.GetSessionStore()
	if store == nil {
		return errors.New("session store not initialized")
	}
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	return sess.Save()
}

// ClearIdentity destroys the web session.
func ClearIdentity(c *fiber.Ctx) error {
	store := session.GetSessionStore()
	if store == nil {
		return nil
	}
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

// ParseSubmitInput reads the submit-report form, including the optional photo.
func ParseSubmitInput(c *fiber.Ctx) (reports.SubmitInput, error) {
	in := reports.SubmitInput{
		Description: c.FormValue("description"),
		Location:    c.FormValue("location"),
		Severity:    c.FormValue("severity", models.SeverityLow),
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
			return in, nil
		}
		return in, err
	}
	if fh.Size == 0 {
		return in, nil
	}
	if fh.Size > imageprocessor.MaxBytes() {
		return in, ErrPhotoTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return in, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, imageprocessor.MaxBytes()+1))
	if err != nil {
		return in, err
	}
	in.Photo = &reports.PhotoUpload{Filename: fh.Filename, Data: data}
	return in, nil
}

// ClientIP returns the originating client address, honouring the usual
// proxy headers.
func ClientIP(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(c.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return strings.TrimPrefix(c.IP(), "::ffff:")
}

func logError(component string, err error) {
	log.Errorf("[%s] %v", component, err)
}
