// Package reports submits water-issue reports and keeps per-session views of
// the signed-in user's reports up to date.
package reports

import (
	"context"
	"errors"
	"time"

	"github.com/ManuelReschke/Reakage/app/models"
	"github.com/ManuelReschke/Reakage/internal/pkg/blobstore"
	"github.com/ManuelReschke/Reakage/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/Reakage/internal/pkg/livequery"
)

var (
	ErrNotFound         = errors.New("report not found")
	ErrKeyAllocation    = errors.New("Failed to generate report ID.")
	ErrNotAuthenticated = errors.New("User not authenticated.")
	ErrListUnauthorized = errors.New("User not authenticated. Cannot fetch reports.")
	ErrBlankFields      = errors.New("Description and location cannot be empty.")
	ErrInvalidSeverity  = errors.New("Severity must be Low, Medium or High.")
	ErrSubmission       = errors.New("Submission failed")
)

const (
	DefaultStoreTimeout  = 10 * time.Second
	DefaultUploadTimeout = 60 * time.Second
)

// Store is the keyed report store.
type Store interface {
	NewKey(ctx context.Context) (string, error)
	Set(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	ListByUserID(ctx context.Context, userID uint) ([]models.Report, error)
}

// Service bundles the backends shared by every Coordinator.
type Service struct {
	store         Store
	blobs         blobstore.Store
	feed          livequery.Feed
	maxPhotoBytes int64
	storeTimeout  time.Duration
	uploadTimeout time.Duration
	now           func() time.Time
}

// Option customises a Service.
type Option func(*Service)

func WithMaxPhotoBytes(n int64) Option {
	return func(s *Service) { s.maxPhotoBytes = n }
}

func WithTimeouts(store, upload time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = store
		s.uploadTimeout = upload
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, blobs blobstore.Store, feed livequery.Feed, opts ...Option) *Service {
	s := &Service{
		store:         store,
		blobs:         blobs,
		feed:          feed,
		maxPhotoBytes: imageprocessor.DefaultMaxBytes,
		storeTimeout:  DefaultStoreTimeout,
		uploadTimeout: DefaultUploadTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultService *Service

// SetService installs the process-wide service used by the HTTP handlers.
func SetService(s *Service) {
	defaultService = s
}

// GetService returns the process-wide service.
func GetService() *Service {
	if defaultService == nil {
		panic("reports service not initialized. Call SetService first.")
	}
	return defaultService
}
