package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ReportStatusSubmitted = "submitted"

	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// Severities lists the selectable severities in display order.
var Severities = []string{SeverityLow, SeverityMedium, SeverityHigh}

// Report is a single water-issue record. ID is allocated by the store and
// the record is never modified after it has been written.
type Report struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" json:"report_id"`
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	ReporterEmail string     `gorm:"type:varchar(200);not null" json:"reporter_email"`
	Location      string     `gorm:"type:varchar(500);not null" json:"location"`
	Description   string     `gorm:"type:text;not null" json:"description"`
	PhotoURL      *string    `gorm:"type:varchar(1024);default:null" json:"photo_url"`
	PhotoKey      string     `gorm:"type:varchar(255);default:null" json:"-"`
	ThumbnailURL  *string    `gorm:"type:varchar(1024);default:null" json:"thumbnail_url,omitempty"`
	Severity      string     `gorm:"type:varchar(20);default:'Low'" json:"severity"`
	Status        string     `gorm:"type:varchar(20);default:'submitted'" json:"status"`
	Latitude      *float64   `json:"latitude,omitempty"`
	Longitude     *float64   `json:"longitude,omitempty"`
	PhotoTakenAt  *time.Time `gorm:"type:timestamp;default:null" json:"photo_taken_at,omitempty"`
	Timestamp     int64      `gorm:"not null" json:"timestamp"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate stamps the server-side timestamp (epoch milliseconds).
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
	return nil
}

// IsValidSeverity reports whether s is one of Severities.
func IsValidSeverity(s string) bool {
	for _, v := range Severities {
		if v == s {
			return true
		}
	}
	return false
}

// FormatReportDate renders a report timestamp for the list screen.
func FormatReportDate(millis int64) string {
	if millis == 0 {
		return "N/A"
	}
	return time.UnixMilli(millis).Format("02 Jan 2006, 03:04 PM")
}
