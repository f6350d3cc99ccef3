package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Reakage/app/models"
)

// reportRepository implements the ReportRepository interface
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository instance
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// NewKey allocates a time-ordered report key. Keys sort in creation order,
// so ordering by key is ordering by insertion.
func (r *reportRepository) NewKey(ctx context.Context) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("allocate report key: %w", err)
	}
	return id.String(), nil
}

// Set writes the report under its key
func (r *reportRepository) Set(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		return fmt.Errorf("report has no key")
	}
	return r.db.WithContext(ctx).Create(report).Error
}

// GetByID retrieves a report by its key
func (r *reportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByUserID returns all reports owned by userID ordered by key
func (r *reportRepository) ListByUserID(ctx context.Context, userID uint) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&reports).Error
	return reports, err
}

// CountByUserID returns the number of reports owned by userID
func (r *reportRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountSince returns the number of reports created at or after since
func (r *reportRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// Count returns the total number of reports
func (r *reportRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).Count(&count).Error
	return count, err
}
