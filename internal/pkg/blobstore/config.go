package blobstore

import (
	"errors"
	"strings"

	"github.com/ManuelReschke/Reakage/internal/pkg/env"
)

// Config holds blob storage configuration
type Config struct {
	Driver string

	UploadsDir string
	UploadsURL string

	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // Required for s3; prefix of the persisted photo URLs
}

// LoadConfig loads storage configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Driver:          strings.ToLower(env.GetEnv("STORAGE_DRIVER", DriverLocal)),
		UploadsDir:      env.GetEnv("UPLOADS_DIR", "./uploads"),
		UploadsURL:      "/uploads",
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   strings.TrimRight(env.GetEnv("S3_PUBLIC_BASE_URL", ""), "/"),
	}

	if cfg.Driver == DriverS3 {
		if cfg.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when STORAGE_DRIVER=s3")
		}
		if cfg.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when STORAGE_DRIVER=s3")
		}
		if cfg.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when STORAGE_DRIVER=s3")
		}
		if cfg.PublicBaseURL == "" {
			return nil, ErrNoPublicBaseURL
		}
	}

	return cfg, nil
}
