package blobstore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"

	// ReportImagesPrefix is the key prefix for report photos
	ReportImagesPrefix = "report_images"
)

// Store persists binary objects under a key and resolves them to URLs.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	URL(ctx context.Context, key string) (string, error)
}

// New creates the store selected by cfg.Driver.
func New(ctx context.Context, cfg *Config) (Store, error) {
	switch cfg.Driver {
	case DriverS3:
		store, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverLocal, "":
		store, err := NewLocalStore(cfg.UploadsDir, cfg.UploadsURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// PhotoKeys returns a fresh object key for a report photo and its thumbnail.
// Format: report_images/<userID>/<uuid>.jpg and report_images/<userID>/<uuid>_thumb.webp
func PhotoKeys(userID uint) (photo, thumb string) {
	name := uuid.New().String()
	base := fmt.Sprintf("%s/%d/%s", ReportImagesPrefix, userID, name)
	return base + ".jpg", base + "_thumb.webp"
}

// ContentType returns the MIME type based on the key extension
func ContentType(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

var defaultStore Store

// SetStore installs the process-wide store.
func SetStore(s Store) {
	defaultStore = s
}

// GetStore returns the process-wide store.
func GetStore() Store {
	if defaultStore == nil {
		log.Warn("[BlobStore] store requested before setup")
	}
	return defaultStore
}
