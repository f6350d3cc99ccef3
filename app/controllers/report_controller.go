package controllers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/valyala/fasthttp"

	"github.com/ManuelReschke/Reakage/app/models"
	"github.com/ManuelReschke/Reakage/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/Reakage/internal/pkg/navigation"
	"github.com/ManuelReschke/Reakage/internal/pkg/reports"
	"github.com/ManuelReschke/Reakage/internal/pkg/statistics"
	"github.com/ManuelReschke/Reakage/internal/pkg/usercontext"
)

const streamHeartbeat = 15 * time.Second

// ReportController serves the submit, list and detail screens
type ReportController struct {
	service *reports.Service
	stats   *statistics.Service
}

// NewReportController creates a report controller. stats may be nil.
func NewReportController(service *reports.Service, stats *statistics.Service) *ReportController {
	return &ReportController{service: service, stats: stats}
}

// ReportItem is a report prepared for the list and detail templates
type ReportItem struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	Status       string `json:"status"`
	Severity     string `json:"severity"`
	Date         string `json:"date"`
	PhotoURL     string `json:"photo_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Coordinates  string `json:"coordinates,omitempty"`
}

func toReportItem(r models.Report) ReportItem {
	item := ReportItem{
		ID:          r.ID,
		Description: r.Description,
		Location:    r.Location,
		Status:      r.Status,
		Severity:    r.Severity,
		Date:        models.FormatReportDate(r.Timestamp),
	}
	if r.Latitude != nil && r.Longitude != nil {
		item.Coordinates = fmt.Sprintf("%.5f, %.5f", *r.Latitude, *r.Longitude)
	}
	if r.PhotoURL != nil {
		item.PhotoURL = *r.PhotoURL
		item.ThumbnailURL = *r.PhotoURL
	}
	if r.ThumbnailURL != nil {
		item.ThumbnailURL = *r.ThumbnailURL
	}
	return item
}

func toReportItems(list []models.Report) []ReportItem {
	items := make([]ReportItem, 0, len(list))
	for _, r := range list {
		items = append(items, toReportItem(r))
	}
	return items
}

// HandleSubmitForm renders the submit-report screen
func (rc *ReportController) HandleSubmitForm(c *fiber.Ctx) error {
	return render(c, navigation.SubmitReport, "reports/new", fiber.Map{
		"Severities":      models.Severities,
		"DefaultSeverity": models.SeverityLow,
		"MaxPhotoMB":      imageprocessor.MaxBytes() >> 20,
	})
}

// HandleSubmit runs a submission and reports its outcome once
func (rc *ReportController) HandleSubmit(c *fiber.Ctx) error {
	owner := usercontext.GetIdentity(c)

	in, err := ParseSubmitInput(c)
	if err != nil {
		if errors.Is(err, ErrPhotoTooLarge) {
			return flashError(c, err.Error(), navigation.SubmitReport.Path())
		}
		logError("Reports", err)
		return flashError(c, "The form could not be read. Please try again.", navigation.SubmitReport.Path())
	}

	coordinator := rc.service.NewCoordinator()
	_, _ = coordinator.Submit(c.UserContext(), owner, in)
	state := coordinator.Submission()
	coordinator.ResetSubmission()

	if !state.Success {
		return flashError(c, "Error: "+state.Error, navigation.SubmitReport.Path())
	}

	if rc.stats != nil {
		rc.stats.ReportSubmitted(owner.ID)
	}
	return flashSuccess(c, "Report submitted successfully!", navigation.Home.Path())
}

// HandleList renders the report list from a snapshot; the page then
// follows /reports/stream for live updates
func (rc *ReportController) HandleList(c *fiber.Ctx) error {
	coordinator := rc.service.NewCoordinator()
	state, err := coordinator.Fetch(c.UserContext(), usercontext.GetIdentity(c))
	if err != nil {
		log.Errorf("[Reports] Loading list failed: %v", err)
	}

	return render(c, navigation.ReportList, "reports/list", fiber.Map{
		"Reports":   toReportItems(state.Reports),
		"Error":     state.Error,
		"StreamURL": "/reports/stream",
	})
}

// HandleStream pushes the live report list as Server-Sent Events. Each
// change to the list is sent as one "reports" event carrying the full list.
func (rc *ReportController) HandleStream(c *fiber.Ctx) error {
	owner := usercontext.GetIdentity(c)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(context.Background())
	coordinator := rc.service.NewCoordinator()
	updates := coordinator.SubscribeList(ctx)
	if err := coordinator.Watch(ctx, owner); err != nil {
		log.Warnf("[Reports] Live query could not start: %v", err)
	}

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(streamHeartbeat)
		defer ticker.Stop()

		for {
			select {
			case state, ok := <-updates:
				if !ok {
					return
				}
				if state.Loading {
					continue
				}
				if err := writeListEvent(w, state); err != nil {
					return
				}
			case <-ticker.C:
				// a failed flush means the client went away
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

type listEvent struct {
	Reports []ReportItem `json:"reports"`
	Error   string       `json:"error,omitempty"`
}

func writeListEvent(w *bufio.Writer, state reports.ListState) error {
	payload, err := json.Marshal(listEvent{Reports: toReportItems(state.Reports), Error: state.Error})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: reports\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

// HandleDetail renders one of the user's reports
func (rc *ReportController) HandleDetail(c *fiber.Ctx) error {
	coordinator := rc.service.NewCoordinator()
	report, err := coordinator.Find(c.UserContext(), usercontext.GetIdentity(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, reports.ErrNotFound) {
			return flashError(c, "Report not found.", navigation.ReportList.Path())
		}
		logError("Reports", err)
		return flashError(c, "The report could not be loaded.", navigation.ReportList.Path())
	}

	return render(c, navigation.ReportDetail, "reports/show", fiber.Map{
		"Report": toReportItem(*report),
	})
}

var reportController *ReportController

// InitializeReportController initializes the global report controller
func InitializeReportController(service *reports.Service, stats *statistics.Service) {
	reportController = NewReportController(service, stats)
}

// GetReportController returns the global report controller instance
func GetReportController() *ReportController {
	if reportController == nil {
		InitializeReportController(reports.GetService(), statistics.GetService())
	}
	return reportController
}
