package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/Reakage/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

// ReportRepository is the keyed report store. Keys are allocated by the
// store and ordered by insertion.
type ReportRepository interface {
	NewKey(ctx context.Context) (string, error)
	Set(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	// ListByUserID returns the owner's reports in key (insertion) order.
	ListByUserID(ctx context.Context, userID uint) ([]models.Report, error)
	CountByUserID(ctx context.Context, userID uint) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User   UserRepository
	Report ReportRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:   NewUserRepository(db),
		Report: NewReportRepository(db),
	}
}
