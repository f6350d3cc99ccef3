package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Reakage/app/models"
	"github.com/ManuelReschke/Reakage/internal/pkg/identity"
	"github.com/ManuelReschke/Reakage/internal/pkg/livequery"
	"github.com/ManuelReschke/Reakage/internal/pkg/middleware"
	"github.com/ManuelReschke/Reakage/internal/pkg/navigation"
	"github.com/ManuelReschke/Reakage/internal/pkg/reports"
	"github.com/ManuelReschke/Reakage/internal/pkg/session"
	"github.com/ManuelReschke/Reakage/internal/pkg/usercontext"
)

const testPassword = "secret123"

type fakeProvider struct {
	mu    sync.Mutex
	users map[string]identity.Identity
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string) (*identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.users[email]; ok {
		return nil, identity.ErrEmailTaken
	}
	id := identity.Identity{ID: uint(len(p.users) + 1), Email: email, DisplayName: strings.Split(email, "@")[0]}
	p.users[email] = id
	return &id, nil
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.users[email]
	if !ok || password != testPassword {
		return nil, identity.ErrInvalidCredentials
	}
	return &id, nil
}

func (p *fakeProvider) SignOut(ctx context.Context, id uint) error { return nil }

func (p *fakeProvider) CurrentUser(ctx context.Context, id uint) (*identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.users {
		if u.ID == id {
			out := u
			return &out, nil
		}
	}
	return nil, identity.ErrUnknownUser
}

type fakeReportStore struct {
	mu    sync.Mutex
	next  int
	rows  map[string]models.Report
	calls int
}

func (s *fakeReportStore) NewKey(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.next++
	return fmt.Sprintf("rep-%03d", s.next), nil
}

func (s *fakeReportStore) Set(ctx context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.rows[report.ID] = *report
	return nil
}

func (s *fakeReportStore) GetByID(ctx context.Context, id string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if r, ok := s.rows[id]; ok {
		return &r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeReportStore) ListByUserID(ctx context.Context, userID uint) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	var out []models.Report
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeReportStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type discardBlobs struct{}

func (discardBlobs) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := io.Copy(io.Discard, body)
	return err
}
func (discardBlobs) URL(ctx context.Context, key string) (string, error) { return "/uploads/" + key, nil }

type fakeProfiles struct {
	mu    sync.Mutex
	users map[uint]models.User
}

func (p *fakeProfiles) GetByID(ctx context.Context, id uint) (*models.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.users[id]; ok {
		return &u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (p *fakeProfiles) Update(ctx context.Context, user *models.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[user.ID] = *user
	return nil
}

type webApp struct {
	app      *fiber.App
	store    *fakeReportStore
	profiles *fakeProfiles
}

func guarded(screen navigation.Screen) fiber.Handler {
	return navigation.Guard(screen, usercontext.IsLoggedIn)
}

func setupWebApp(t *testing.T) *webApp {
	t.Helper()

	session.SetSessionStore(fibersession.New())
	t.Cleanup(func() { session.SetSessionStore(nil) })

	provider := &fakeProvider{users: map[string]identity.Identity{}}
	_, err := provider.SignUp(context.Background(), "ann@example.com", testPassword)
	require.NoError(t, err)

	store := &fakeReportStore{rows: make(map[string]models.Report)}
	InitializeReportController(reports.NewService(store, discardBlobs{}, livequery.NewMemoryFeed()), nil)

	profiles := &fakeProfiles{users: map[uint]models.User{
		1: {ID: 1, Email: "ann@example.com", DisplayName: "ann", Password: "$2a$10$hash", Status: models.STATUS_ACTIVE},
	}}
	InitializeUserController(profiles)

	app := fiber.New(fiber.Config{Views: html.New("../../views", ".html")})
	app.Use(middleware.UserContextMiddleware(provider))

	app.Get("/", HandleSplash)
	app.Get("/splash/next", HandleSplashNext)
	app.Post("/logout", middleware.RequireAuth, HandleAuthLogout)
	app.Get("/login", guarded(navigation.Login), HandleAuthLogin)
	app.Post("/login", guarded(navigation.Login), HandleAuthLogin)
	app.Get("/home", guarded(navigation.Home), HandleHome)
	app.Get("/reports/new", guarded(navigation.SubmitReport), HandleReportNew)
	app.Post("/reports/new", guarded(navigation.SubmitReport), HandleReportCreate)
	app.Get("/reports", guarded(navigation.ReportList), HandleReportList)
	app.Get("/reports/stream", guarded(navigation.ReportList), HandleReportStream)
	app.Get("/reports/:id", guarded(navigation.ReportDetail), HandleReportShow)
	app.Get("/profile", guarded(navigation.Profile), HandleUserProfile)
	app.Post("/profile", guarded(navigation.Profile), HandleUserProfileUpdate)

	return &webApp{app: app, store: store, profiles: profiles}
}

func (w *webApp) request(t *testing.T, req *http.Request, cookies []*http.Cookie) *http.Response {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := w.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func formRequest(method, path string, values url.Values) *http.Request {
	req, _ := http.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// login signs in the seeded account and returns the session cookies.
func (w *webApp) login(t *testing.T) []*http.Cookie {
	t.Helper()
	resp := w.request(t, formRequest(http.MethodPost, "/login", url.Values{
		"email":    {"ann@example.com"},
		"password": {testPassword},
	}), nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/home", resp.Header.Get("Location"))

	var cookies []*http.Cookie
	for _, c := range resp.Cookies() {
		// flash cookies are one-shot
		if c.Name == "session_id" {
			cookies = append(cookies, c)
		}
	}
	require.NotEmpty(t, cookies)
	return cookies
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
