package apiv1

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Reakage/app/controllers"
	"github.com/ManuelReschke/Reakage/app/models"
	"github.com/ManuelReschke/Reakage/internal/pkg/identity"
	"github.com/ManuelReschke/Reakage/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/Reakage/internal/pkg/reports"
	"github.com/ManuelReschke/Reakage/internal/pkg/statistics"
	"github.com/ManuelReschke/Reakage/internal/pkg/usercontext"
)

// APIServer implements the ServerInterface
type APIServer struct {
	reports *reports.Service
	stats   *statistics.Service
}

// NewAPIServer creates a new API server instance. stats may be nil.
func NewAPIServer(svc *reports.Service, stats *statistics.Service) *APIServer {
	return &APIServer{reports: svc, stats: stats}
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(ErrorResponse{Error: code, Message: message})
}

func sessionResponse(s identity.Session) SessionResponse {
	return SessionResponse{SignedIn: s.SignedIn(), User: s.User}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

// PostAuthSignUp creates an account and signs it in
func (s *APIServer) PostAuthSignUp(c *fiber.Ctx) error {
	var body Credentials
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	h := controllers.HolderFor(c)
	state := h.SignUp(c.UserContext(), body.Email, body.Password, body.PasswordConfirmation)
	if !state.SignedIn() {
		h.ClearError()
		status := fiber.StatusBadRequest
		if errors.Is(state.Err(), identity.ErrEmailTaken) {
			status = fiber.StatusConflict
		}
		return jsonError(c, status, "sign_up_failed", state.Error)
	}

	if err := controllers.StoreIdentity(c, state.User); err != nil {
		log.Errorf("[API] Storing session failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "session could not be stored")
	}
	if s.stats != nil {
		s.stats.UserRegistered()
	}

	return c.Status(fiber.StatusCreated).JSON(sessionResponse(state))
}

// PostAuthSignIn verifies credentials and binds the identity to the session
func (s *APIServer) PostAuthSignIn(c *fiber.Ctx) error {
	var body Credentials
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	h := controllers.HolderFor(c)
	state := h.SignIn(c.UserContext(), body.Email, body.Password)
	if !state.SignedIn() {
		h.ClearError()
		return jsonError(c, fiber.StatusUnauthorized, "sign_in_failed", state.Error)
	}

	if err := controllers.StoreIdentity(c, state.User); err != nil {
		log.Errorf("[API] Storing session failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "session could not be stored")
	}

	return c.JSON(sessionResponse(state))
}

// PostAuthSignOut always succeeds
func (s *APIServer) PostAuthSignOut(c *fiber.Ctx) error {
	state := controllers.HolderFor(c).SignOut(c.UserContext())
	if err := controllers.ClearIdentity(c); err != nil {
		log.Warnf("[API] Destroying session failed: %v", err)
	}
	return c.JSON(sessionResponse(state))
}

// GetSession returns the current identity
func (s *APIServer) GetSession(c *fiber.Ctx) error {
	return c.JSON(sessionResponse(controllers.HolderFor(c).State()))
}

// GetReports returns the caller's reports, newest first
func (s *APIServer) GetReports(c *fiber.Ctx) error {
	state, err := s.reports.NewCoordinator().Fetch(c.UserContext(), usercontext.GetIdentity(c))
	if err != nil {
		if errors.Is(err, reports.ErrListUnauthorized) {
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized", state.Error)
		}
		log.Errorf("[API] Loading reports failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load reports")
	}
	list := state.Reports
	if list == nil {
		list = []models.Report{}
	}
	return c.JSON(ReportList{Reports: list})
}

// PostReports submits a report from a multipart form
func (s *APIServer) PostReports(c *fiber.Ctx) error {
	owner := usercontext.GetIdentity(c)

	in, err := controllers.ParseSubmitInput(c)
	if err != nil {
		if errors.Is(err, controllers.ErrPhotoTooLarge) {
			return jsonError(c, fiber.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
		}
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid form")
	}

	coordinator := s.reports.NewCoordinator()
	report, err := coordinator.Submit(c.UserContext(), owner, in)
	coordinator.ResetSubmission()
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrNotAuthenticated):
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized", err.Error())
		case imageprocessor.IsRejected(err):
			return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_photo", err.Error())
		case errors.Is(err, reports.ErrKeyAllocation):
			return jsonError(c, fiber.StatusInternalServerError, "submission_failed", err.Error())
		case errors.Is(err, reports.ErrSubmission):
			return jsonError(c, fiber.StatusBadGateway, "submission_failed", err.Error())
		default:
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
		}
	}

	if s.stats != nil {
		s.stats.ReportSubmitted(owner.ID)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetReport returns one of the caller's reports
func (s *APIServer) GetReport(c *fiber.Ctx, id string) error {
	report, err := s.reports.NewCoordinator().Find(c.UserContext(), usercontext.GetIdentity(c), id)
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrNotFound):
			return jsonError(c, fiber.StatusNotFound, "not_found", "Report not found")
		case errors.Is(err, reports.ErrNotAuthenticated):
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized", err.Error())
		}
		log.Errorf("[API] Loading report %s failed: %v", id, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load report")
	}
	return c.JSON(report)
}
